package csvcheck

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func mustValidate(t *testing.T, input string, opts Options) *Report {
	t.Helper()
	rep, err := ValidateString(context.Background(), input, opts)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return rep
}

func noHeader() Options {
	o := DefaultOptions()
	o.HasHeader = false
	return o
}

func TestValidate_ConsistentRowsNoHeader(t *testing.T) {
	rep := mustValidate(t, "1,2,3\n4,5,6\n7,8,9\n", noHeader())

	if rep.DataRowCount != 3 {
		t.Errorf("DataRowCount = %d, want 3", rep.DataRowCount)
	}
	if rep.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want 3", rep.FieldCount)
	}
	if len(rep.HeaderNames) != 0 {
		t.Errorf("HeaderNames = %q, want none", rep.HeaderNames)
	}
	if !rep.Valid() {
		t.Errorf("unexpected messages: %v", rep.Messages)
	}
}

func TestValidate_HeaderRoundTrip(t *testing.T) {
	rep := mustValidate(t, "A,B,C\r\n1,2,3\r\n4,5,6", DefaultOptions())

	if rep.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want 3", rep.FieldCount)
	}
	if rep.DataRowCount != 2 {
		t.Errorf("DataRowCount = %d, want 2", rep.DataRowCount)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(rep.HeaderNames, want) {
		t.Errorf("HeaderNames = %q, want %q", rep.HeaderNames, want)
	}
	if len(rep.Messages) != 0 {
		t.Errorf("unexpected messages: %v", rep.Messages)
	}
}

func TestValidate_FieldCountMismatch(t *testing.T) {
	rep := mustValidate(t, "A,B,C\n1,2\n3,4,5\n6,7,8,9\n", DefaultOptions())

	if len(rep.Messages) != 2 {
		t.Fatalf("got %d messages, want 2: %v", len(rep.Messages), rep.Messages)
	}

	want := []struct {
		row     int
		content string
	}{
		{2, "the number of fields (2) does not match the expected number of fields (3)"},
		{4, "the number of fields (4) does not match the expected number of fields (3)"},
	}
	for i, w := range want {
		m := rep.Messages[i]
		if m.Code != CodeFieldCountMismatch || m.Severity != SeverityError {
			t.Errorf("message %d = %v, want code 1 error", i, m)
		}
		if m.Row != w.row {
			t.Errorf("message %d Row = %d, want %d", i, m.Row, w.row)
		}
		if m.Field != -1 || m.Offset != -1 {
			t.Errorf("message %d Field/Offset = %d/%d, want -1/-1", i, m.Field, m.Offset)
		}
		if m.Content != w.content {
			t.Errorf("message %d Content = %q, want %q", i, m.Content, w.content)
		}
	}
	if rep.DataRowCount != 3 {
		t.Errorf("DataRowCount = %d, want 3", rep.DataRowCount)
	}
}

func TestValidate_MultiLineQuotedField(t *testing.T) {
	input := "id,note,flag\n1,\"first line\nsecond, line\nthird\",yes\n2,plain,no\n"
	rep := mustValidate(t, input, DefaultOptions())

	if len(rep.Messages) != 0 {
		t.Fatalf("unexpected messages: %v", rep.Messages)
	}
	if rep.DataRowCount != 2 {
		t.Errorf("DataRowCount = %d, want 2", rep.DataRowCount)
	}
	if rep.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want 3", rep.FieldCount)
	}
}

func TestValidate_MultiLineCountUsesWholeRow(t *testing.T) {
	// The first physical line alone has 2 fields; the logical row has 3.
	input := "a,b,c\n1,\"x\ny\",3\n"
	rep := mustValidate(t, input, noHeader())

	if len(rep.Messages) != 0 {
		t.Fatalf("unexpected messages: %v", rep.Messages)
	}
	if rep.DataRowCount != 2 {
		t.Errorf("DataRowCount = %d, want 2", rep.DataRowCount)
	}
}

func TestValidate_RowNumbersAreLogical(t *testing.T) {
	input := "a,b\n\"1\n2\n3\",x\nbad\"quote,y\n"
	rep := mustValidate(t, input, noHeader())

	if len(rep.Messages) != 1 {
		t.Fatalf("got %d messages, want 1: %v", len(rep.Messages), rep.Messages)
	}
	m := rep.Messages[0]
	if m.Code != CodeQuotePlacement || m.Row != 3 || m.Offset != 3 {
		t.Errorf("message = %+v, want code 2 at row 3 offset 3", m)
	}
}

func TestValidate_MultiLineDefectReportedOnce(t *testing.T) {
	input := "a\"b,\"open\nclosed\"\n"
	rep := mustValidate(t, input, noHeader())

	if len(rep.Messages) != 1 {
		t.Fatalf("got %d messages, want 1: %v", len(rep.Messages), rep.Messages)
	}
	if rep.Messages[0].Offset != 1 {
		t.Errorf("Offset = %d, want 1", rep.Messages[0].Offset)
	}
}

func TestValidate_StrayQuoteAtRowEndDoesNotContinue(t *testing.T) {
	rep := mustValidate(t, "A\n\"x\"y\nz\n", noHeader())

	if rep.DataRowCount != 3 {
		t.Errorf("DataRowCount = %d, want 3", rep.DataRowCount)
	}
	if len(rep.Messages) != 1 {
		t.Fatalf("got %d messages, want 1: %v", len(rep.Messages), rep.Messages)
	}
	m := rep.Messages[0]
	if m.Code != CodeQuotePlacement || m.Content != msgUnescapedQuote || m.Row != 2 || m.Offset != 3 {
		t.Errorf("message = %+v, want unescaped quote at row 2 offset 3", m)
	}
}

func TestValidate_HeaderQuality(t *testing.T) {
	rep := mustValidate(t, ",NAME,  ,AGE\n", DefaultOptions())

	if len(rep.Messages) != 2 {
		t.Fatalf("got %d messages, want 2: %v", len(rep.Messages), rep.Messages)
	}

	empty := rep.Messages[0]
	if empty.Code != CodeEmptyHeaderName || empty.Severity != SeverityWarning {
		t.Errorf("first message = %v, want code 4 warning", empty)
	}
	if empty.Row != 1 || empty.Field != 1 {
		t.Errorf("first message row/field = %d/%d, want 1/1", empty.Row, empty.Field)
	}

	blank := rep.Messages[1]
	if blank.Code != CodeWhitespaceHeaderName || blank.Severity != SeverityInformation {
		t.Errorf("second message = %v, want code 5 information", blank)
	}
	if blank.Row != 1 || blank.Field != 3 {
		t.Errorf("second message row/field = %d/%d, want 1/3", blank.Row, blank.Field)
	}
	if rep.DataRowCount != 0 {
		t.Errorf("DataRowCount = %d, want 0", rep.DataRowCount)
	}
}

func TestValidate_MessageOrder(t *testing.T) {
	// Structural messages in detection order, then header quality.
	input := ",B\n1,2,3\nx\"y,z\n"
	rep := mustValidate(t, input, DefaultOptions())

	var codes []Code
	for _, m := range rep.Messages {
		codes = append(codes, m.Code)
	}
	want := []Code{CodeFieldCountMismatch, CodeQuotePlacement, CodeEmptyHeaderName}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("codes = %v, want %v", codes, want)
	}
}

func TestValidate_FieldNameFromHeader(t *testing.T) {
	rep := mustValidate(t, "id,name\n1,bo\"b\n", DefaultOptions())

	if len(rep.Messages) != 1 {
		t.Fatalf("got %d messages, want 1: %v", len(rep.Messages), rep.Messages)
	}
	if got := rep.Messages[0].FieldName; got != "name" {
		t.Errorf("FieldName = %q, want %q", got, "name")
	}
}

func TestValidate_MultiLineHeader(t *testing.T) {
	rep := mustValidate(t, "A,\"B\nC\",D\n1,2,3\n", DefaultOptions())

	want := []string{"A", "\"B\r\nC\"", "D"}
	if !reflect.DeepEqual(rep.HeaderNames, want) {
		t.Errorf("HeaderNames = %q, want %q", rep.HeaderNames, want)
	}
	if rep.DataRowCount != 1 || rep.FieldCount != 3 {
		t.Errorf("DataRowCount/FieldCount = %d/%d, want 1/3", rep.DataRowCount, rep.FieldCount)
	}
	if len(rep.Messages) != 0 {
		t.Errorf("unexpected messages: %v", rep.Messages)
	}
}

func TestValidate_UnterminatedQuoteAtEOF(t *testing.T) {
	rep := mustValidate(t, "a,b\n1,\"open\nstill open\n", noHeader())

	if len(rep.Messages) != 1 {
		t.Fatalf("got %d messages, want 1: %v", len(rep.Messages), rep.Messages)
	}
	m := rep.Messages[0]
	if m.Code != CodeUnterminatedQuote || m.Row != 2 || m.Field != 2 {
		t.Errorf("message = %+v, want code 3 at row 2 field 2", m)
	}
	if rep.DataRowCount != 1 {
		t.Errorf("DataRowCount = %d, want 1", rep.DataRowCount)
	}
}

func TestValidator_WithoutUnterminatedQuoteError(t *testing.T) {
	v := New(noHeader(), WithoutUnterminatedQuoteError())
	rep, err := v.Validate(context.Background(), strings.NewReader("a,b\n1,\"op\"en\nstill open\n"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if rep.DataRowCount != 1 {
		t.Errorf("DataRowCount = %d, want 1", rep.DataRowCount)
	}
	// The quoting defect inside the open row is kept; only code 3 is dropped.
	if len(rep.Messages) != 1 || rep.Messages[0].Code != CodeQuotePlacement {
		t.Errorf("messages = %v, want one code 2 message", rep.Messages)
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), noHeader()} {
		rep := mustValidate(t, "", opts)
		if rep.DataRowCount != 0 || rep.FieldCount != 0 {
			t.Errorf("DataRowCount/FieldCount = %d/%d, want 0/0", rep.DataRowCount, rep.FieldCount)
		}
		if len(rep.HeaderNames) != 0 || len(rep.Messages) != 0 {
			t.Errorf("expected empty report, got %+v", rep)
		}
	}
}

func TestValidate_EmptyLinesAreRows(t *testing.T) {
	rep := mustValidate(t, "a,b\n\n1,2\n", noHeader())

	if rep.DataRowCount != 3 {
		t.Errorf("DataRowCount = %d, want 3", rep.DataRowCount)
	}
	if len(rep.Messages) != 1 || rep.Messages[0].Row != 2 {
		t.Errorf("messages = %v, want one mismatch on row 2", rep.Messages)
	}
}

func TestValidate_BOMStripped(t *testing.T) {
	rep := mustValidate(t, "\xEF\xBB\xBFA,B\n1,2\n", DefaultOptions())
	if rep.HeaderNames[0] != "A" {
		t.Errorf("HeaderNames[0] = %q, want %q", rep.HeaderNames[0], "A")
	}
}

func TestValidate_Idempotent(t *testing.T) {
	input := "A,,C\n1,\"x\"y\",3\n4,5\n\"a\nb\",c,d\n"
	a := mustValidate(t, input, DefaultOptions())
	b := mustValidate(t, input, DefaultOptions())
	a.Elapsed, b.Elapsed = 0, 0
	if !reflect.DeepEqual(a, b) {
		t.Errorf("reports differ:\n%+v\n%+v", a, b)
	}
}

func TestValidate_FatalErrors(t *testing.T) {
	t.Run("invalid utf8", func(t *testing.T) {
		_, err := ValidateString(context.Background(), "a,b\n\xff,c\n", DefaultOptions())
		if !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("err = %v, want ErrInvalidEncoding", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		boom := errors.New("disk gone")
		_, err := Validate(context.Background(), iotest.ErrReader(boom), DefaultOptions())
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})

	t.Run("line too long", func(t *testing.T) {
		v := New(DefaultOptions(), WithMaxLineBytes(16))
		_, err := v.Validate(context.Background(), strings.NewReader(strings.Repeat("x", 64)+"\n"))
		if !errors.Is(err, ErrLineTooLong) {
			t.Errorf("err = %v, want ErrLineTooLong", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Validate(ctx, strings.NewReader("a\nb\n"), DefaultOptions())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("bad options", func(t *testing.T) {
		_, err := ValidateString(context.Background(), "a", Options{Separator: '"'})
		if err == nil {
			t.Error("expected error for separator equal to quote")
		}
	})
}

func TestValidate_OneByteReader(t *testing.T) {
	input := "név,ár\n\"a\nb\",ő\n"
	rep, err := Validate(context.Background(), iotest.OneByteReader(strings.NewReader(input)), DefaultOptions())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rep.DataRowCount != 1 || len(rep.Messages) != 0 {
		t.Errorf("report = %+v", rep)
	}
	if rep.HeaderNames[0] != "név" {
		t.Errorf("HeaderNames[0] = %q", rep.HeaderNames[0])
	}
}

func TestValidator_HeaderChecker(t *testing.T) {
	var seen []string
	checker := HeaderCheckerFunc(func(names []string) []Message {
		seen = append([]string(nil), names...)
		return []Message{{Code: 100, Severity: SeverityWarning, Kind: KindSchema, Content: "extra", Row: 1, Field: 2, Offset: -1}}
	})

	v := New(DefaultOptions(), WithHeaderChecker(checker))
	rep, err := v.Validate(context.Background(), strings.NewReader(",B\n1,2\n"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !reflect.DeepEqual(seen, []string{"", "B"}) {
		t.Errorf("checker saw %q", seen)
	}
	if len(rep.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(rep.Messages))
	}
	if rep.Messages[0].Code != CodeEmptyHeaderName || rep.Messages[1].Kind != KindSchema {
		t.Errorf("messages out of order: %v", rep.Messages)
	}
}

func TestValidator_HeaderCheckerSkippedWithoutHeader(t *testing.T) {
	called := false
	checker := HeaderCheckerFunc(func([]string) []Message {
		called = true
		return nil
	})

	v := New(noHeader(), WithHeaderChecker(checker))
	if _, err := v.Validate(context.Background(), strings.NewReader("1,2\n")); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if called {
		t.Error("checker called for input without header")
	}
}
