package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/parser"
)

func newParser() *MessageParser {
	return NewMessageParser(parser.New(hl7v2.LaxPreset()...))
}

func TestMessageParser_ParseStream(t *testing.T) {
	input := message("1") + message("2")

	count := 0
	for result := range newParser().ParseStream(context.Background(), strings.NewReader(input)) {
		if result.Error != nil {
			t.Errorf("message %d error: %v", result.Index, result.Error)
			continue
		}
		if result.Index != count {
			t.Errorf("Index = %d; want %d", result.Index, count)
		}
		if want := fmt.Sprint(count + 1); result.ControlID != want {
			t.Errorf("ControlID = %q; want %q", result.ControlID, want)
		}
		if result.MessageType != "ADT^A01" {
			t.Errorf("MessageType = %q; want ADT^A01", result.MessageType)
		}
		count++
	}

	if count != 2 {
		t.Errorf("Parsed %d messages; want 2", count)
	}
}

func TestMessageParser_ParseStreamParallel(t *testing.T) {
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	input := batch(ids...)

	results := newParser().WithWorkerCount(3).WithBufferSize(4).
		ParseStreamParallel(context.Background(), strings.NewReader(input))

	next := 0
	for result := range results {
		if result.Error != nil {
			t.Fatalf("message %d error: %v", result.Index, result.Error)
		}
		if result.Index != next {
			t.Fatalf("Index = %d; want %d (order not preserved)", result.Index, next)
		}
		if result.ControlID != ids[next] {
			t.Errorf("ControlID = %q; want %q", result.ControlID, ids[next])
		}
		next++
	}
	if next != len(ids) {
		t.Errorf("Parsed %d messages; want %d", next, len(ids))
	}
}

func TestMessageParser_CountMismatch(t *testing.T) {
	input := "BHS|^~\\&\r" + message("1") + "BTS|2\r"

	for name, parse := range map[string]func(context.Context, *strings.Reader) <-chan *MessageResult{
		"sequential": func(ctx context.Context, r *strings.Reader) <-chan *MessageResult {
			return newParser().ParseStream(ctx, r)
		},
		"parallel": func(ctx context.Context, r *strings.Reader) <-chan *MessageResult {
			return newParser().ParseStreamParallel(ctx, r)
		},
	} {
		t.Run(name, func(t *testing.T) {
			agg := Aggregate(parse(context.Background(), strings.NewReader(input)))
			if agg.TotalMessages != 1 {
				t.Errorf("TotalMessages = %d; want 1", agg.TotalMessages)
			}
			if len(agg.ProcessingErrors) != 1 || !errors.Is(agg.ProcessingErrors[0], ErrCountMismatch) {
				t.Errorf("ProcessingErrors = %v; want one ErrCountMismatch", agg.ProcessingErrors)
			}
			if !agg.HasErrors() {
				t.Error("HasErrors() = false; want true")
			}
		})
	}
}

func TestMessageParser_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newParser()
	for name, results := range map[string]<-chan *MessageResult{
		"sequential": p.ParseStream(ctx, strings.NewReader(message("1"))),
		"parallel":   p.ParseStreamParallel(ctx, strings.NewReader(message("1")+message("2"))),
	} {
		var sawCancel bool
		for result := range results {
			if errors.Is(result.Error, context.Canceled) {
				sawCancel = true
			}
		}
		if !sawCancel {
			t.Errorf("%s: expected a context.Canceled result", name)
		}
	}
}

func TestMessageParser_ParallelSegmentNumbers(t *testing.T) {
	input := "FHS|^~\\&\r" + message("1") + message("2")

	var got []int
	for result := range newParser().WithWorkerCount(2).ParseStreamParallel(context.Background(), strings.NewReader(input)) {
		if result.Error != nil {
			t.Fatalf("message %d error: %v", result.Index, result.Error)
		}
		got = append(got, result.Segment)
	}
	want := []int{2, 4}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Segment numbers = %v; want %v", got, want)
	}
}

func TestMessageParser_BadMessage(t *testing.T) {
	// The second MSH carries an unusable delimiter prefix.
	input := message("1") + "MSH|^^\r" + message("3")

	agg := Aggregate(newParser().ParseStream(context.Background(), strings.NewReader(input)))
	if agg.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d; want 3", agg.TotalMessages)
	}
	if agg.MessagesWithErrors != 1 {
		t.Errorf("MessagesWithErrors = %d; want 1", agg.MessagesWithErrors)
	}
	if len(agg.Issues[1]) == 0 {
		t.Error("Issues[1] is empty; want the malformed header")
	}
	if len(agg.Documents) != 3 {
		t.Errorf("Documents = %d; want 3", len(agg.Documents))
	}
}

func TestAggregate(t *testing.T) {
	warned := hl7v2.NewResult()
	warned.AddWarning(issue.KindUnexpectedSegment, "ZZZ not expected", "ZZZ")
	failed := hl7v2.NewResult()
	failed.AddIssue(hl7v2.Issue{Severity: hl7v2.SeverityError, Diagnostics: "bad"})

	results := make(chan *MessageResult, 5)
	results <- &MessageResult{Index: 0, Document: &parser.Document{Result: hl7v2.NewResult()}}
	results <- &MessageResult{Index: 1, Document: &parser.Document{Result: warned}}
	results <- &MessageResult{Index: 2, Document: &parser.Document{Result: failed}}
	results <- &MessageResult{Index: 3, Error: errors.New("boom")}
	results <- &MessageResult{Index: -1, Error: ErrCountMismatch}
	close(results)

	agg := Aggregate(results)
	if agg.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d; want 3", agg.TotalMessages)
	}
	if agg.MessagesWithWarnings != 1 || agg.MessagesWithErrors != 1 {
		t.Errorf("warnings, errors = %d, %d; want 1, 1", agg.MessagesWithWarnings, agg.MessagesWithErrors)
	}
	if agg.TotalIssues != 2 {
		t.Errorf("TotalIssues = %d; want 2", agg.TotalIssues)
	}
	if len(agg.ProcessingErrors) != 2 {
		t.Errorf("ProcessingErrors = %d; want 2", len(agg.ProcessingErrors))
	}
	want := "Parsed 3 messages: 1 with errors, 1 with warnings, 2 total issues"
	if agg.Summary() != want {
		t.Errorf("Summary() = %q; want %q", agg.Summary(), want)
	}
}

func TestMessageParser_Options(t *testing.T) {
	p := newParser().WithBufferSize(0).WithWorkerCount(-1)
	if p.bufferSize != 100 || p.workerCount != 4 {
		t.Errorf("invalid options changed settings: buffer %d, workers %d", p.bufferSize, p.workerCount)
	}
	p.WithBufferSize(10).WithWorkerCount(2)
	if p.bufferSize != 10 || p.workerCount != 2 {
		t.Errorf("settings = %d, %d; want 10, 2", p.bufferSize, p.workerCount)
	}
}

func BenchmarkMessageParser_Stream(b *testing.B) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	input := batch(ids...)
	p := newParser()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range p.ParseStream(context.Background(), strings.NewReader(input)) {
		}
	}
}

func BenchmarkMessageParser_StreamParallel(b *testing.B) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	input := batch(ids...)
	p := newParser()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range p.ParseStreamParallel(context.Background(), strings.NewReader(input)) {
		}
	}
}
