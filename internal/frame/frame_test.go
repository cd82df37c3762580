package frame

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = "a,b,label\n1,2,x\n3,4,y\n"

func TestRead_HeaderAndRecords(t *testing.T) {
	f, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "label"}, f.Columns); diff != "" {
		t.Errorf("Columns mismatch:\n%s", diff)
	}
	if f.Len() != 2 {
		t.Errorf("Len = %d, want 2", f.Len())
	}
}

func TestRead_RejectsDuplicateColumns(t *testing.T) {
	if _, err := Read(strings.NewReader("a,a\n1,2\n")); err == nil {
		t.Fatal("expected error for duplicate column")
	}
}

func TestRead_RejectsRaggedRows(t *testing.T) {
	if _, err := Read(strings.NewReader("a,b\n1,2\n3\n")); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestRead_Empty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDrop(t *testing.T) {
	f, _ := Read(strings.NewReader(sample))
	x, err := f.Drop("label")
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, x.Columns); diff != "" {
		t.Errorf("Columns mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"1", "2"}, {"3", "4"}}, x.Records); diff != "" {
		t.Errorf("Records mismatch:\n%s", diff)
	}
	if len(f.Columns) != 3 {
		t.Error("Drop mutated the source frame")
	}
}

func TestDrop_MissingColumn(t *testing.T) {
	f, _ := Read(strings.NewReader(sample))
	_, err := f.Drop("target")
	if !errors.Is(err, ErrNoColumn) {
		t.Fatalf("err = %v, want ErrNoColumn", err)
	}
}

func TestFloats(t *testing.T) {
	f, _ := Read(strings.NewReader("a,b\n1.5,true\n-2,false\n"))
	got, err := f.Floats()
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	want := [][]float64{{1.5, 1}, {-2, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Floats mismatch:\n%s", diff)
	}
}

func TestFloats_RejectsText(t *testing.T) {
	f, _ := Read(strings.NewReader(sample))
	if _, err := f.Floats(); err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
}

func TestAppendAndWrite(t *testing.T) {
	f, _ := Read(strings.NewReader("a\n1\n2\n"))
	if err := f.Append("pred", []string{"x", "y"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := buf.String(), "a,pred\n1,x\n2,y\n"; got != want {
		t.Errorf("Write = %q, want %q", got, want)
	}
	if err := f.Append("short", []string{"z"}); err == nil {
		t.Error("expected error for mismatched length")
	}
}
