package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the colors of one console theme
type palette struct {
	time      string
	component string
	fg        string
	key       string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;108m",
		fg:        "\x1b[38;5;223m",
		key:       "\x1b[38;5;65m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		fg:        "\x1b[38;5;223m",
		key:       "\x1b[38;5;109m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console log output.
// Unknown theme names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// minimalEncoder is a compact console encoder:
//
//	13:04:35  typegen  Assembled declarations  symbols=412 opaque=57
type minimalEncoder struct {
	zapcore.Encoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if lvl := levelString(ent.Level, c); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(c.component)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(formatFields(fields, c))
	}

	final.AppendString("\n")
	return final, nil
}

// levelString returns a bold badge for WARN and above; INFO and DEBUG stay quiet
func levelString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.DebugLevel:
		return c.key + "debug" + colorReset
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	default:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	}
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

func formatFields(fields []zapcore.Field, c palette) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, c.key+f.Key+"="+colorReset+fieldValue(f))
	}
	return strings.Join(parts, " ")
}
