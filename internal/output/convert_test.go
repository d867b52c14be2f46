// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func mustEvents(t *testing.T, o Output) []Event {
	t.Helper()
	events, err := Collect(context.Background(), ToEventStream(o))
	if err != nil {
		t.Fatalf("Collect(ToEventStream) error = %v", err)
	}
	return events
}

func assertEvents(t *testing.T, got, want []Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d\ngot:  %#v\nwant: %#v", len(got), len(want), got, want)
	}
	for i := range want {
		if !EventsEqual(got[i], want[i]) {
			t.Errorf("event %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func roundTrip(t *testing.T, o Output) Output {
	t.Helper()
	got, err := FromEventStream(context.Background(), ToEventStream(o))
	if err != nil {
		t.Fatalf("FromEventStream() error = %v", err)
	}
	return got
}

func TestSingleSection(t *testing.T) {
	o := Output{
		Text: "Hello, world!",
		Sections: []Section[int]{{
			Range: Range[int]{Start: 0, End: 13},
			Icon:  IconCode,
			Label: "Section 1",
		}},
	}

	assertEvents(t, mustEvents(t, o), []Event{
		StartSection{Icon: IconCode, Label: "Section 1"},
		Content{Text: "Hello, world!"},
		EndSection{},
	})

	if got := roundTrip(t, o); !got.Equal(o) {
		t.Errorf("round trip = %#v, want %#v", got, o)
	}
}

func TestGapsBetweenSections(t *testing.T) {
	o := Output{
		Text: "Apple\nCucumber\nBanana\n",
		Sections: []Section[int]{
			{Range: Range[int]{Start: 0, End: 6}, Icon: IconCheck, Label: "Fruit"},
			{Range: Range[int]{Start: 15, End: 22}, Icon: IconCheck, Label: "Fruit"},
		},
	}

	assertEvents(t, mustEvents(t, o), []Event{
		StartSection{Icon: IconCheck, Label: "Fruit"},
		Content{Text: "Apple\n"},
		EndSection{},
		Content{Text: "Cucumber\n"},
		StartSection{Icon: IconCheck, Label: "Fruit"},
		Content{Text: "Banana\n"},
		EndSection{},
	})

	got := roundTrip(t, o)
	if !got.Equal(o) {
		t.Fatalf("round trip = %#v, want %#v", got, o)
	}
	if got.SectionText(1) != "Banana\n" {
		t.Errorf("SectionText(1) = %q, want %q", got.SectionText(1), "Banana\n")
	}
}

func TestSectionsWithMetadata(t *testing.T) {
	text := "Line 1\nLine 2\nLine 3\nLine 4\n"
	icons := []Icon{IconFileCode, IconFileDoc, IconFileGit, IconFileToml}
	keys := []string{"a", "b", "c", "d"}

	var sections []Section[int]
	for i := range 4 {
		sections = append(sections, Section[int]{
			Range:    Range[int]{Start: i * 7, End: i*7 + 6},
			Icon:     icons[i],
			Label:    fmt.Sprintf("Section %d", i+1),
			Metadata: MustMetadata(map[string]bool{keys[i]: true}),
		})
	}
	o := Output{Text: text, Sections: sections}

	var want []Event
	for i, s := range sections {
		want = append(want,
			StartSection{Icon: s.Icon, Label: s.Label, Metadata: s.Metadata},
			Content{Text: fmt.Sprintf("Line %d", i+1)},
			EndSection{Metadata: s.Metadata},
			Content{Text: "\n"},
		)
	}
	assertEvents(t, mustEvents(t, o), want)

	if got := roundTrip(t, o); !got.Equal(o) {
		t.Errorf("round trip = %#v, want %#v", got, o)
	}
}

func TestEmptySectionFidelity(t *testing.T) {
	o := Output{
		Text: "ab",
		Sections: []Section[int]{
			{Range: Range[int]{Start: 1, End: 1}, Icon: IconWarning, Label: "empty"},
		},
		RunCommandsInText: true,
	}

	assertEvents(t, mustEvents(t, o), []Event{
		Content{Text: "a", RunCommandsInText: true},
		StartSection{Icon: IconWarning, Label: "empty"},
		Content{Text: "", RunCommandsInText: true},
		EndSection{},
		Content{Text: "b", RunCommandsInText: true},
	})

	got := roundTrip(t, o)
	if !got.Equal(o) {
		t.Fatalf("round trip = %#v, want %#v", got, o)
	}
	if r := got.Sections[0].Range; r.Start != r.End {
		t.Errorf("empty section reconstructed as %d..%d", r.Start, r.End)
	}
}

func TestFlagOnlyOutputSurvives(t *testing.T) {
	o := Output{RunCommandsInText: true}
	if got := roundTrip(t, o); !got.Equal(o) {
		t.Errorf("round trip = %#v, want %#v", got, o)
	}
	if events := mustEvents(t, Output{}); len(events) != 0 {
		t.Errorf("empty output produced %d events, want 0", len(events))
	}
}

func TestEndSectionMetadataOverrides(t *testing.T) {
	start := MustMetadata(map[string]int{"v": 1})
	end := MustMetadata(map[string]int{"v": 2})

	got := FromEvents([]Event{
		StartSection{Icon: IconFile, Label: "x", Metadata: start},
		Content{Text: "body"},
		EndSection{Metadata: end},
	})
	if len(got.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(got.Sections))
	}
	if !got.Sections[0].Metadata.Equal(end) {
		t.Errorf("metadata = %s, want %s", got.Sections[0].Metadata, end)
	}

	// An EndSection without metadata clears it.
	got = FromEvents([]Event{
		StartSection{Label: "x", Metadata: start},
		EndSection{},
	})
	if got.Sections[0].Metadata.Present() {
		t.Errorf("metadata = %s, want absent", got.Sections[0].Metadata)
	}
}

func TestDefensiveClose(t *testing.T) {
	got := FromEvents([]Event{
		StartSection{Label: "A"},
		Content{Text: "x"},
		StartSection{Label: "B"},
		Content{Text: "y"},
		EndSection{},
	})

	want := Output{
		Text: "xy",
		Sections: []Section[int]{
			{Range: Range[int]{Start: 0, End: 1}, Label: "A"},
			{Range: Range[int]{Start: 1, End: 2}, Label: "B"},
		},
	}
	if !got.Equal(want) {
		t.Errorf("FromEvents() = %#v, want %#v", got, want)
	}
}

func TestStrayEndSectionIgnored(t *testing.T) {
	got := FromEvents([]Event{
		EndSection{Metadata: MustMetadata(1)},
		Content{Text: "free"},
		EndSection{},
	})
	want := Output{Text: "free"}
	if !got.Equal(want) {
		t.Errorf("FromEvents() = %#v, want %#v", got, want)
	}
}

func TestUnterminatedSectionAutoClosed(t *testing.T) {
	meta := MustMetadata(map[string]string{"path": "a.go"})
	got, err := FromEventStream(context.Background(), StreamOf(
		Content{Text: "> "},
		StartSection{Icon: IconFileCode, Label: "a.go", Metadata: meta},
		Content{Text: "package a\n"},
	))
	if err != nil {
		t.Fatalf("FromEventStream() error = %v", err)
	}
	want := Output{
		Text: "> package a\n",
		Sections: []Section[int]{
			{Range: Range[int]{Start: 2, End: 12}, Icon: IconFileCode, Label: "a.go", Metadata: meta},
		},
	}
	if !got.Equal(want) {
		t.Errorf("FromEventStream() = %#v, want %#v", got, want)
	}
}

func TestRunCommandsInTextLastWriteWins(t *testing.T) {
	got := FromEvents([]Event{
		Content{Text: "a", RunCommandsInText: true},
		Content{Text: "b", RunCommandsInText: false},
	})
	if got.RunCommandsInText {
		t.Error("RunCommandsInText = true, want false")
	}

	got = FromEvents([]Event{
		Content{Text: "a", RunCommandsInText: false},
		Content{Text: "b", RunCommandsInText: true},
	})
	if !got.RunCommandsInText {
		t.Error("RunCommandsInText = false, want true")
	}
}

func TestStreamErrorDiscardsPartialOutput(t *testing.T) {
	boom := errors.New("boom")
	got, err := FromEventStream(context.Background(), StreamOfErr(boom,
		StartSection{Label: "partial"},
		Content{Text: "lost"},
	))
	if !errors.Is(err, boom) {
		t.Fatalf("FromEventStream() error = %v, want %v", err, boom)
	}
	if !got.Equal(Output{}) {
		t.Errorf("FromEventStream() = %#v, want zero Output", got)
	}
}

func TestFromEventStreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FromEventStream(ctx, StreamOf(Content{Text: "x"}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FromEventStream() error = %v, want context.Canceled", err)
	}
}

func TestInvalidRangeFailsLoudly(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section[int]
	}{
		{"end past text", []Section[int]{{Range: Range[int]{Start: 0, End: 10}}}},
		{"inverted", []Section[int]{{Range: Range[int]{Start: 3, End: 1}}}},
		{"negative", []Section[int]{{Range: Range[int]{Start: -1, End: 1}}}},
		{"overlap", []Section[int]{
			{Range: Range[int]{Start: 0, End: 3}},
			{Range: Range[int]{Start: 2, End: 4}},
		}},
		{"out of order", []Section[int]{
			{Range: Range[int]{Start: 3, End: 4}},
			{Range: Range[int]{Start: 0, End: 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Output{Text: "hello", Sections: tt.sections}
			stream := ToEventStream(o)
			ev, err := stream.Next(context.Background())
			if ev != nil {
				t.Errorf("first item = %#v, want no event", ev)
			}
			var rerr *RangeError
			if !errors.As(err, &rerr) || !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("Next() error = %v, want *RangeError", err)
			}

			if _, err := FromEventStream(context.Background(), ToEventStream(o)); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("FromEventStream() error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestToEventStreamIsRestartable(t *testing.T) {
	o := Output{
		Text:     "abc",
		Sections: []Section[int]{{Range: Range[int]{Start: 1, End: 2}, Label: "b"}},
	}
	first := mustEvents(t, o)
	second := mustEvents(t, o)
	assertEvents(t, second, first)
}

// =============================================================================
// ROUND-TRIP PROPERTY
// =============================================================================

var fragments = []string{
	"", "a", "hello", "\n", "fn main() {}\n", "héllo wörld", "日本語", "🙂🙃", "  \t", "line 1\nline 2\n",
}

func randomMetadata(r *rand.Rand) Metadata {
	switch r.Intn(5) {
	case 0:
		return nil
	case 1:
		return Metadata("null")
	case 2:
		return MustMetadata(map[string]any{"n": r.Intn(100), "tag": fragments[r.Intn(len(fragments))]})
	case 3:
		// Beyond float64 precision
		return MustMetadata(map[string]uint64{"id": r.Uint64() | 1<<53})
	default:
		return MustMetadata([]int{r.Intn(10), r.Intn(10)})
	}
}

func randomOutput(r *rand.Rand) Output {
	var text strings.Builder
	var sections []Section[int]
	icons := []Icon{IconNone, IconCode, IconFile, IconFolder, Icon("custom")}

	for range r.Intn(8) {
		if r.Intn(2) == 0 {
			text.WriteString(fragments[r.Intn(len(fragments))])
		}
		start := text.Len()
		for range r.Intn(3) {
			text.WriteString(fragments[r.Intn(len(fragments))])
		}
		sections = append(sections, Section[int]{
			Range:    Range[int]{Start: start, End: text.Len()},
			Icon:     icons[r.Intn(len(icons))],
			Label:    fragments[r.Intn(len(fragments))],
			Metadata: randomMetadata(r),
		})
	}
	if r.Intn(2) == 0 {
		text.WriteString(fragments[r.Intn(len(fragments))])
	}

	return Output{Text: text.String(), Sections: sections, RunCommandsInText: r.Intn(2) == 0}
}

func TestRoundTripProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := range 2000 {
		o := randomOutput(r)
		if err := o.Validate(); err != nil {
			t.Fatalf("case %d: generator produced invalid output: %v", i, err)
		}
		got := roundTrip(t, o)
		if !got.Equal(o) {
			t.Fatalf("case %d: round trip mismatch\ngot:  %#v\nwant: %#v", i, got, o)
		}
	}
}

func TestBuilderSnapshot(t *testing.T) {
	var b Builder
	b.Push(Content{Text: "> "})
	b.Push(StartSection{Label: "s"})
	b.Push(Content{Text: "abc"})

	if !b.Open() {
		t.Fatal("Open() = false, want true")
	}
	snap := b.Snapshot()
	if len(snap.Sections) != 1 || snap.Sections[0].Range.End != 5 {
		t.Errorf("Snapshot() = %#v, want open section ending at 5", snap)
	}

	b.Push(Content{Text: "d"})
	final := b.Finish()
	if final.Sections[0].Range.End != 6 {
		t.Errorf("Finish() section end = %d, want 6", final.Sections[0].Range.End)
	}
	if snap.Sections[0].Range.End != 5 {
		t.Error("Snapshot() aliased builder state")
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	o := randomOutput(r)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FromEventStream(ctx, ToEventStream(o)); err != nil {
			b.Fatal(err)
		}
	}
}
