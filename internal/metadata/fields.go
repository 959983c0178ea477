package metadata

import (
	"fmt"
	"strconv"
	"time"

	"mediasort/internal/dates"
)

// Field is the closed set of storage fields a record can carry.
type Field string

const (
	FieldFileName     Field = "file_name"
	FieldFileLocation Field = "file_location"
	FieldDateTaken    Field = "date_taken"
	FieldFlash        Field = "flash"
	FieldDuration     Field = "duration"
	FieldSize         Field = "size"
	FieldWidth        Field = "width"
	FieldHeight       Field = "height"
	FieldCameraMake   Field = "camera_make"
	FieldCameraModel  Field = "camera_model"
	FieldMimeType     Field = "mime_type"
)

var allFields = []Field{
	FieldFileName,
	FieldFileLocation,
	FieldDateTaken,
	FieldFlash,
	FieldDuration,
	FieldSize,
	FieldWidth,
	FieldHeight,
	FieldCameraMake,
	FieldCameraModel,
	FieldMimeType,
}

// Fields returns every storage field in column order.
func Fields() []Field {
	return append([]Field(nil), allFields...)
}

// ParseField resolves a storage column name.
func ParseField(name string) (Field, error) {
	for _, f := range allFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown storage field %q", name)
}

// Column returns the SQL column backing the field. Columns are fixed
// identifiers and never come from user input.
func (f Field) Column() string { return string(f) }

func (f Field) String() string { return string(f) }

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindTime
	KindBool
	KindInt
	KindFloat
)

// Value is a typed field value: Text, Time, Bool, Int or Float.
type Value interface {
	Kind() Kind
	// SQL returns the value bound to a statement parameter.
	SQL() any
	String() string
	isValue()
}

type (
	Text  string
	Time  time.Time
	Bool  bool
	Int   int64
	Float float64
)

func (Text) Kind() Kind  { return KindText }
func (Time) Kind() Kind  { return KindTime }
func (Bool) Kind() Kind  { return KindBool }
func (Int) Kind() Kind   { return KindInt }
func (Float) Kind() Kind { return KindFloat }

func (v Text) SQL() any  { return string(v) }
func (v Time) SQL() any  { return dates.Format(time.Time(v)) }
func (v Int) SQL() any   { return int64(v) }
func (v Float) SQL() any { return float64(v) }
func (v Bool) SQL() any {
	if v {
		return int64(1)
	}
	return int64(0)
}

func (v Text) String() string  { return string(v) }
func (v Time) String() string  { return dates.Format(time.Time(v)) }
func (v Bool) String() string  { return strconv.FormatBool(bool(v)) }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }

func (Text) isValue()  {}
func (Time) isValue()  {}
func (Bool) isValue()  {}
func (Int) isValue()   {}
func (Float) isValue() {}

// Payload maps storage fields to sanitized values.
type Payload map[Field]Value

// Get returns the value for f.
func (p Payload) Get(f Field) (Value, bool) {
	v, ok := p[f]
	return v, ok
}

// Text returns the string form of f, or "" when absent.
func (p Payload) Text(f Field) string {
	if v, ok := p[f]; ok && v != nil {
		return v.String()
	}
	return ""
}

// Fields returns the fields present in p in column order.
func (p Payload) Fields() []Field {
	out := make([]Field, 0, len(p))
	for _, f := range allFields {
		if _, ok := p[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
