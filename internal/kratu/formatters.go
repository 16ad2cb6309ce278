package kratu

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"golang.org/x/net/html"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// FormatDefault renders a value for signals without a formatter
func (l *Library) FormatDefault(value any) *html.Node {
	switch v := value.(type) {
	case nil:
		return Text("")
	case string:
		return Text(v)
	case bool:
		return Text(l.printer.Sprintf("%v", v))
	}
	if f, ok := Numeric(value); ok {
		if f == math.Trunc(f) {
			return Text(l.whole(f))
		}
		return Text(l.printer.Sprintf("%v", f))
	}
	return Text(l.printer.Sprintf("%v", value))
}

func (l *Library) numeric(formatter string, value any) (float64, error) {
	f, ok := Numeric(value)
	if !ok {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("%s: value %v is not numeric", formatter, value))
	}
	return f, nil
}

func (l *Library) money(value any, _ *html.Node) (*html.Node, error) {
	if value == nil {
		return Text(""), nil
	}
	f, err := l.numeric("money", value)
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return Text(l.printer.Sprintf("-$%.2f", -f)), nil
	}
	return Text(l.printer.Sprintf("$%.2f", f)), nil
}

// percentage expects a fraction: 0.125 renders as 12.5%.
func (l *Library) percentage(value any, _ *html.Node) (*html.Node, error) {
	if value == nil {
		return Text(""), nil
	}
	f, err := l.numeric("percentage", value)
	if err != nil {
		return nil, err
	}
	return Text(l.printer.Sprintf("%.1f%%", f*100)), nil
}

func (l *Library) singleDecimal(value any, _ *html.Node) (*html.Node, error) {
	if value == nil {
		return Text(""), nil
	}
	f, err := l.numeric("singleDecimal", value)
	if err != nil {
		return nil, err
	}
	return Text(l.printer.Sprintf("%.1f", f)), nil
}

func (l *Library) boolean(value any, _ *html.Node) (*html.Node, error) {
	if value == nil {
		return Text(""), nil
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("boolean: value %v is not a boolean", value))
	}
	if b {
		return Text("Yes"), nil
	}
	return Text("No"), nil
}

func (l *Library) integer(value any, _ *html.Node) (*html.Node, error) {
	if value == nil {
		return Text(""), nil
	}
	f, err := l.numeric("integer", value)
	if err != nil {
		return nil, err
	}
	return Text(l.whole(math.Round(f))), nil
}

// whole prints an integral float with grouping, past the range of int64 too
func (l *Library) whole(f float64) string {
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return l.printer.Sprintf("%.0f", f)
	}
	return l.printer.Sprintf("%d", int64(f))
}
