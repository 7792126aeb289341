package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Hans774882968/rare-chars-conversion/pkg/article"
	"github.com/Hans774882968/rare-chars-conversion/pkg/batch"
	"github.com/Hans774882968/rare-chars-conversion/pkg/converter"
	"github.com/Hans774882968/rare-chars-conversion/pkg/db"
	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
	"github.com/Hans774882968/rare-chars-conversion/pkg/pinyin"
	"github.com/Hans774882968/rare-chars-conversion/pkg/unihan"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	dbFlag := flag.String("db", "rarechars.db", "Path to SQLite database")
	importFlag := flag.String("import-readings", "", "Path to Unihan_Readings.txt to (re)build the dictionary from; downloaded if missing")
	dictFlag := flag.String("dict", "", "Load the dictionary from a compressed artifact instead of the database")
	exportFlag := flag.String("export", "", "Write the loaded dictionary as a compressed artifact and exit")
	commonFlag := flag.String("common", "", "Path to a common-character list replacing the bundled GB 2312 level-1 set")
	modeFlag := flag.String("mode", string(converter.ModeRareOnly), "rare-only, rare-and-common or common-only")
	annotatorFlag := flag.String("annotator", "pinyin", "Pronunciation source: pinyin (go-pinyin) or dict (dictionary reverse index)")
	textFlag := flag.String("text", "", "Text to convert")
	fileFlag := flag.String("file", "", "Convert a UTF-8 text file line by line")
	urlFlag := flag.String("url", "", "Convert the article at URL")
	lookupFlag := flag.String("lookup", "", "Print the pronunciations and candidate tiers of a character")
	workersFlag := flag.Int("workers", 4, "Concurrent workers for -file and -url")
	historyFlag := flag.Bool("history", false, "Record -file and -url conversions in the database (enables resume)")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := sql.Open("sqlite3", *dbFlag)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()

	if err := db.InitDB(conn); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Handle dictionary import
	if *importFlag != "" {
		if err := unihan.EnsureReadings(ctx, *importFlag); err != nil {
			log.Fatalf("Failed to obtain Unihan readings: %v", err)
		}
		start := time.Now()
		pd := unihan.LoadReadings(*importFlag, nil)
		if len(pd) == 0 {
			log.Fatalf("No readings parsed from %s; keeping the existing dictionary", *importFlag)
		}
		n, err := db.ReplaceReadings(conn, pd)
		if err != nil {
			log.Fatalf("Failed to store dictionary: %v", err)
		}
		log.Printf("Stored %d pronunciations (%d characters) in %v", len(pd), n, time.Since(start))
		if *exportFlag == "" {
			return
		}
	}

	pd, err := loadDictionary(conn, *dictFlag)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}
	if len(pd) == 0 {
		log.Printf("Warning: dictionary is empty, text will come back unchanged. Run with -import-readings first.")
	}

	if *exportFlag != "" {
		if err := dictionary.SaveArtifact(*exportFlag, pd); err != nil {
			log.Fatalf("Failed to export dictionary: %v", err)
		}
		log.Printf("Exported %d pronunciations to %s", len(pd), *exportFlag)
		return
	}

	common := dictionary.DefaultCommonCharSet()
	if *commonFlag != "" {
		if common, err = dictionary.LoadCommonCharSet(*commonFlag); err != nil {
			log.Fatalf("Failed to load common characters: %v", err)
		}
	}

	dicts := dictionary.New(pd, common)
	sel := converter.NewSelector(dicts, converter.RandomPicker)

	if *lookupFlag != "" {
		printLookup(os.Stdout, sel, *lookupFlag)
		return
	}

	mode := converter.Mode(*modeFlag)
	if !mode.Valid() {
		log.Fatalf("Unknown mode %q (want %s, %s or %s)", *modeFlag,
			converter.ModeRareOnly, converter.ModeRareAndCommon, converter.ModeCommonOnly)
	}

	var ann converter.Annotator
	switch *annotatorFlag {
	case "pinyin":
		ann = pinyin.NewAnnotator()
	case "dict":
		ann = converter.NewDictAnnotator(dicts.Characters)
	default:
		log.Fatalf("Unknown annotator %q", *annotatorFlag)
	}
	conv := converter.New(sel, ann)

	switch {
	case *textFlag != "":
		fmt.Println(conv.Transform(*textFlag, mode))

	case *fileFlag != "" || *urlFlag != "":
		var histDB *sql.DB
		if *historyFlag {
			histDB = conn
		}
		sourceType, title, sourceURL, lines, err := readSource(ctx, *fileFlag, *urlFlag)
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
		var sourceID int64
		if histDB != nil {
			if sourceID, err = db.CreateOrGetSource(conn, sourceType, title, sourceURL); err != nil {
				log.Fatalf("Failed to persist source: %v", err)
			}
		}

		bc := batch.NewConverter(conv, histDB)
		bc.Workers = *workersFlag
		bc.Logger = log.Default()
		out, err := bc.ConvertLines(ctx, sourceID, lines, mode)
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		w := bufio.NewWriter(os.Stdout)
		for _, l := range out {
			fmt.Fprintln(w, l)
		}
		w.Flush()

	default:
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Failed to read stdin: %v", err)
		}
		fmt.Print(conv.Transform(string(in), mode))
	}
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func loadDictionary(conn *sql.DB, artifactPath string) (dictionary.PronunciationDict, error) {
	if artifactPath != "" {
		return dictionary.LoadArtifact(artifactPath)
	}
	return db.LoadReadings(conn)
}

func readSource(ctx context.Context, file, rawURL string) (sourceType, title, sourceURL string, lines []string, err error) {
	if rawURL != "" {
		a, err := article.Fetch(ctx, httpClient, rawURL)
		if err != nil {
			return "", "", "", nil, err
		}
		log.Printf("Title: %s", a.Title)
		return "website_article", a.Title, rawURL, a.Lines(), nil
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return "", "", "", nil, err
	}
	text := strings.TrimSuffix(string(content), "\n")
	abs, _ := filepath.Abs(file)
	return "file", abs, "", strings.Split(text, "\n"), nil
}

func printLookup(w io.Writer, sel *converter.Selector, char string) {
	prons := sel.Dictionaries().Characters.Lookup(char)
	if len(prons) == 0 {
		fmt.Fprintf(w, "%s: not in dictionary\n", char)
		return
	}
	for _, p := range prons {
		t := sel.Tiers(char, p)
		fmt.Fprintf(w, "%s [%s]\n", char, p)
		fmt.Fprintf(w, "  all    (%d): %s\n", len(t.All), strings.Join(t.All, ""))
		fmt.Fprintf(w, "  rare   (%d): %s\n", len(t.Rare), strings.Join(t.Rare, ""))
		fmt.Fprintf(w, "  common (%d): %s\n", len(t.Common), strings.Join(t.Common, ""))
	}
}
