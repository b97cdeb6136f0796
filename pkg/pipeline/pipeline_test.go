package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/japaniel/headliner/pkg/config"
	"github.com/japaniel/headliner/pkg/nlp"
	"github.com/japaniel/headliner/pkg/stats"
	"github.com/japaniel/headliner/pkg/table"
)

const headlines = "title,link\n" +
	"Storms batter London,http://a\n" +
	"London and Paris talks,http://b\n" +
	"Berlin hosts London summit,http://c\n" +
	"Paris fashion week,http://d\n" +
	",http://e\n"

// cityModel recognises a fixed set of capitals by whitespace tokenization.
var cityModel = nlp.ModelFunc(func(text string) (nlp.Doc, error) {
	var doc nlp.Doc
	for _, w := range strings.Fields(text) {
		switch w {
		case "London", "Paris", "Berlin":
			doc.Entities = append(doc.Entities, nlp.Entity{Text: w, Label: "GPE"})
			doc.Tokens = append(doc.Tokens, nlp.TaggedToken{Text: w, POS: "PROPN"})
		default:
			doc.Tokens = append(doc.Tokens, nlp.TaggedToken{Text: w, POS: "NOUN"})
		}
	}
	return doc, nil
})

func newRunner(t *testing.T, input string) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "news.csv")
	if input != "" {
		if err := os.WriteFile(in, []byte(input), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.InputPath = in
	cfg.OutputPath = filepath.Join(dir, "news_tagged.csv")

	var out, logs bytes.Buffer
	r := New(cfg)
	r.Out = &out
	r.Logger = log.New(&logs, "", 0)
	r.Open = func(string) (nlp.Model, error) { return cityModel, nil }
	return r, &out, &logs
}

func TestRun(t *testing.T) {
	r, out, _ := newRunner(t, headlines)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Rows != 5 || !res.Annotated {
		t.Errorf("unexpected result %+v", res)
	}
	want := []stats.EntityCount{{Text: "London", Count: 3}, {Text: "Paris", Count: 2}, {Text: "Berlin", Count: 1}}
	if !reflect.DeepEqual(res.Top, want) {
		t.Errorf("got top %v, want %v", res.Top, want)
	}

	for _, line := range []string{
		"Loaded " + r.Config.InputPath + " with 5 rows.",
		"Processing text (this may take a moment)...",
		"Top 5 Entities Found in Headlines:",
		"   - London: 3",
		"Processed data saved successfully to: " + r.Config.OutputPath,
	} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("output missing %q:\n%s", line, out.String())
		}
	}

	tagged, err := table.Load(r.Config.OutputPath)
	if err != nil {
		t.Fatalf("reload output: %v", err)
	}
	if !reflect.DeepEqual(tagged.Header, []string{"title", "link", "entities", "pos_tags"}) {
		t.Errorf("unexpected output header %v", tagged.Header)
	}
	if tagged.Len() != 5 {
		t.Fatalf("expected 5 output rows, got %d", tagged.Len())
	}
	for i, row := range tagged.Rows {
		if want := fmt.Sprintf("http://%c", 'a'+i); row.Fields["link"] != want {
			t.Errorf("row %d link = %q, want %q", i, row.Fields["link"], want)
		}
		ents, err := table.DecodePairs(row.Fields["entities"])
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		tags, err := table.DecodePairs(row.Fields["pos_tags"])
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if len(tags) != len(strings.Fields(row.Title)) {
			t.Errorf("row %d: %d tags for %q", i, len(tags), row.Title)
		}
		for _, e := range ents {
			if !strings.Contains(row.Title, e[0]) {
				t.Errorf("row %d: entity %q not in title %q", i, e[0], row.Title)
			}
		}
	}
	if last := tagged.Rows[4]; last.Fields["entities"] != "[]" || last.Fields["pos_tags"] != "[]" {
		t.Errorf("empty title should encode empty lists, got %+v", last.Fields)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r, _, _ := newRunner(t, headlines)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(r.Config.OutputPath)
	if err != nil {
		t.Fatal(err)
	}

	r.Config.Workers = 4
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(r.Config.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("outputs differ:\n%s\n---\n%s", first, second)
	}
}

func TestRunMissingInput(t *testing.T) {
	r, out, logs := newRunner(t, "")

	_, err := r.Run(context.Background())
	if !errors.Is(err, table.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(logs.String(), "Error: File not found at "+r.Config.InputPath) {
		t.Errorf("missing not-found message in logs: %q", logs.String())
	}
	if _, err := os.Stat(r.Config.OutputPath); !os.IsNotExist(err) {
		t.Errorf("output must not be written, stat err = %v", err)
	}
	if strings.Contains(out.String(), "saved successfully") {
		t.Errorf("unexpected save message: %s", out.String())
	}
}

func TestRunModelUnavailable(t *testing.T) {
	r, out, logs := newRunner(t, headlines)
	r.Open = func(id string) (nlp.Model, error) {
		return nil, fmt.Errorf("%w: %s", nlp.ErrModelUnavailable, id)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("degraded run should succeed, got %v", err)
	}
	if res.Annotated || len(res.Top) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(logs.String(), "unavailable") {
		t.Errorf("expected remediation warning, got %q", logs.String())
	}
	if !strings.Contains(out.String(), "No entities found.") {
		t.Errorf("expected empty report, got %s", out.String())
	}

	got, err := os.ReadFile(r.Config.OutputPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(got) != headlines {
		t.Errorf("degraded output should equal input:\n%s", got)
	}
}

func TestRunAnnotationFailureDegrades(t *testing.T) {
	r, _, logs := newRunner(t, headlines)
	r.Open = func(string) (nlp.Model, error) {
		return nlp.ModelFunc(func(string) (nlp.Doc, error) { return nlp.Doc{}, errors.New("bad weights") }), nil
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Annotated {
		t.Error("table should not be annotated")
	}
	if !strings.Contains(logs.String(), "bad weights") {
		t.Errorf("expected annotation warning, got %q", logs.String())
	}
}

func TestRunCanceled(t *testing.T) {
	r, _, _ := newRunner(t, headlines)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(r.Config.OutputPath); !os.IsNotExist(err) {
		t.Errorf("canceled run must not write output, stat err = %v", err)
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	r, _, _ := newRunner(t, headlines)
	r.Config.OutputPath = filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv")
	if _, err := r.Run(context.Background()); !errors.Is(err, table.ErrIOFailure) {
		t.Fatalf("expected ErrIOFailure, got %v", err)
	}
}

func TestRunWithIPAModel(t *testing.T) {
	r, _, _ := newRunner(t, "title\n東京に行く\n大阪と東京\n")
	r.Config.ModelID = nlp.JapaneseModelID
	r.Open = OpenModel

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Annotated {
		t.Fatal("expected annotated table")
	}
	if len(res.Top) == 0 || res.Top[0] != (stats.EntityCount{Text: "東京", Count: 2}) {
		t.Errorf("expected 東京 to rank first with 2, got %v", res.Top)
	}
}

func TestRunWithDefaultModel(t *testing.T) {
	r, _, _ := newRunner(t, "title\nFloods hit London, Paris and Berlin\nParis talks stall\n")
	r.Open = OpenModel

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Annotated {
		t.Fatal("expected annotated table")
	}
	for _, ec := range res.Top {
		if strings.Contains(ec.Text, ",") {
			t.Errorf("entity %q spans several cities", ec.Text)
		}
	}
	got, err := table.Load(r.Config.OutputPath)
	if err != nil {
		t.Fatalf("reload output: %v", err)
	}
	if !strings.Contains(got.Rows[0].Fields[table.EntitiesColumn], `["London","GPE"]`) {
		t.Errorf("expected London GPE in first row, got %q", got.Rows[0].Fields[table.EntitiesColumn])
	}
	if !strings.Contains(got.Rows[0].Fields[table.POSTagsColumn], `[",","PUNCT"]`) {
		t.Errorf("expected comma tagged PUNCT, got %q", got.Rows[0].Fields[table.POSTagsColumn])
	}
}

func TestRunForwardsLoggerAndProgress(t *testing.T) {
	r, _, logs := newRunner(t, headlines)
	r.Config.Workers = 2
	var calls int32
	var last int32
	r.OnProgress = func(done, total int) {
		atomic.AddInt32(&calls, 1)
		if done == total {
			atomic.StoreInt32(&last, int32(done))
		}
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(logs.String(), "Annotating 5 rows with 2 worker(s)") {
		t.Errorf("expected annotator log line, got %q", logs.String())
	}
	if calls != 5 || last != 5 {
		t.Errorf("expected 5 progress calls ending at 5, got calls=%d last=%d", calls, last)
	}
}
