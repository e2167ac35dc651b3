package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// string

type String string

func NewString(p *string, val string) *String {
	*p = val

	return (*String)(p)
}

func (s *String) Set(val string) error {
	*s = String(val)
	return nil
}

func (s *String) String() string {
	return string(*s)
}

func (s *String) Validate() error {
	return nil
}

func (s *String) IsEmpty() bool {
	return len(string(*s)) == 0
}

// boolean

type Bool bool

func NewBool(p *bool, val bool) *Bool {
	*p = val

	return (*Bool)(p)
}

func (b *Bool) Set(val string) error {
	v, err := strconv.ParseBool(val)
	if err != nil {
		return err
	}
	*b = Bool(v)
	return nil
}

func (b *Bool) String() string {
	return strconv.FormatBool(bool(*b))
}

func (b *Bool) Validate() error {
	return nil
}

func (b *Bool) IsEmpty() bool {
	return !bool(*b)
}

// int with a lower bound

type Int struct {
	p   *int
	min int
}

// NewInt binds p to an integer value that must not be lower than min.
func NewInt(p *int, val, min int) *Int {
	*p = val

	return &Int{
		p:   p,
		min: min,
	}
}

func (i *Int) Set(val string) error {
	v, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return err
	}
	*i.p = v
	return nil
}

func (i *Int) String() string {
	return strconv.Itoa(*i.p)
}

func (i *Int) Validate() error {
	if *i.p < i.min {
		return fmt.Errorf("%d is lower than %d", *i.p, i.min)
	}

	return nil
}

func (i *Int) IsEmpty() bool {
	return *i.p == 0
}

// regular expression

type Regexp string

func NewRegexp(p *string, val string) *Regexp {
	*p = val

	return (*Regexp)(p)
}

func (r *Regexp) Set(val string) error {
	*r = Regexp(val)
	return nil
}

func (r *Regexp) String() string {
	return string(*r)
}

func (r *Regexp) Validate() error {
	if _, err := regexp.Compile(string(*r)); err != nil {
		return fmt.Errorf("invalid regular expression: %w", err)
	}

	return nil
}

func (r *Regexp) IsEmpty() bool {
	return len(string(*r)) == 0
}

// log level

type LogLevel string

var logLevels = []string{"silent", "error", "warn", "info", "debug"}

func NewLogLevel(p *string, val string) *LogLevel {
	*p = val

	return (*LogLevel)(p)
}

func (l *LogLevel) Set(val string) error {
	*l = LogLevel(strings.ToLower(strings.TrimSpace(val)))
	return nil
}

func (l *LogLevel) String() string {
	return string(*l)
}

func (l *LogLevel) Validate() error {
	for _, level := range logLevels {
		if string(*l) == level {
			return nil
		}
	}

	return fmt.Errorf("'%s' is not one of %s", string(*l), strings.Join(logLevels, ", "))
}

func (l *LogLevel) IsEmpty() bool {
	return len(string(*l)) == 0
}
