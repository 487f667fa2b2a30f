package search

import (
	"github.com/pior/redisstack/command"
)

// FieldType is the type of an indexed field.
type FieldType string

const (
	FieldText    FieldType = "TEXT"
	FieldNumeric FieldType = "NUMERIC"
	FieldTag     FieldType = "TAG"
	FieldGeo     FieldType = "GEO"
)

// IndexType is the kind of document an index covers.
type IndexType string

const (
	OnHash IndexType = "HASH"
	OnJSON IndexType = "JSON"
)

// Field is one field of an index schema. Options that do not apply to the
// field type are ignored.
type Field struct {
	// Name is the hash field or the JSON path ("$.name").
	Name string
	As   string
	Type FieldType

	Sortable bool
	NoIndex  bool

	// Unf keeps the original value for sorting (SORTABLE UNF). Implies Sortable.
	Unf bool

	// TEXT
	NoStem   bool
	Weight   float64
	Phonetic string

	// TAG
	Separator     string
	CaseSensitive bool
}

// Schema lists the fields of an index, in order.
type Schema []Field

func (f Field) appendTo(args command.Args) command.Args {
	args = append(args, f.Name)
	args = command.PushStringOption(args, "AS", f.As)
	args = append(args, string(f.Type))

	switch f.Type {
	case FieldText:
		args = command.PushFlag(args, "NOSTEM", f.NoStem)
		if f.Weight != 0 {
			args = append(args, "WEIGHT")
			args = args.AppendFloat(f.Weight)
		}
		args = command.PushStringOption(args, "PHONETIC", f.Phonetic)
	case FieldTag:
		args = command.PushStringOption(args, "SEPARATOR", f.Separator)
		args = command.PushFlag(args, "CASESENSITIVE", f.CaseSensitive)
	}

	if f.Sortable || f.Unf {
		args = append(args, "SORTABLE")
		args = command.PushFlag(args, "UNF", f.Unf)
	}
	return command.PushFlag(args, "NOINDEX", f.NoIndex)
}

// CreateOptions are the index options of FT.CREATE.
type CreateOptions struct {
	On              IndexType
	Prefix          []string
	Filter          string
	Language        string
	LanguageField   string
	Score           float64
	ScoreField      string
	MaxTextFields   bool
	NoOffsets       bool
	NoHL            bool
	NoFields        bool
	NoFreqs         bool
	SkipInitialScan bool

	// Temporary expires the index after this many seconds of inactivity.
	Temporary int64

	// Stopwords replaces the default stop words. A non-nil empty slice
	// disables stop words.
	Stopwords []string
}

func (o *CreateOptions) appendTo(args command.Args) command.Args {
	if o == nil {
		return args
	}

	args = command.PushStringOption(args, "ON", string(o.On))
	if len(o.Prefix) > 0 {
		args = append(args, "PREFIX")
		args = command.PushVariadicWithLength(args, o.Prefix...)
	}
	args = command.PushStringOption(args, "FILTER", o.Filter)
	args = command.PushStringOption(args, "LANGUAGE", o.Language)
	args = command.PushStringOption(args, "LANGUAGE_FIELD", o.LanguageField)
	if o.Score != 0 {
		args = append(args, "SCORE")
		args = args.AppendFloat(o.Score)
	}
	args = command.PushStringOption(args, "SCORE_FIELD", o.ScoreField)
	args = command.PushFlag(args, "MAXTEXTFIELDS", o.MaxTextFields)
	args = command.PushIntOption(args, "TEMPORARY", o.Temporary)
	args = command.PushFlag(args, "NOOFFSETS", o.NoOffsets)
	args = command.PushFlag(args, "NOHL", o.NoHL)
	args = command.PushFlag(args, "NOFIELDS", o.NoFields)
	args = command.PushFlag(args, "NOFREQS", o.NoFreqs)
	if o.Stopwords != nil {
		args = append(args, "STOPWORDS")
		args = command.PushVariadicWithLength(args, o.Stopwords...)
	}
	return command.PushFlag(args, "SKIPINITIALSCAN", o.SkipInitialScan)
}
