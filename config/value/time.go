package value

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lestrrat-go/strftime"
)

// strftime pattern for a file name

type Strftime string

func NewStrftime(p *string, val string) *Strftime {
	*p = val

	return (*Strftime)(p)
}

func (s *Strftime) Set(val string) error {
	*s = Strftime(val)
	return nil
}

func (s *Strftime) String() string {
	return string(*s)
}

func (s *Strftime) Validate() error {
	val := string(*s)

	if strings.ContainsRune(val, filepath.Separator) || strings.ContainsRune(val, '/') {
		return fmt.Errorf("the pattern must not contain a path separator")
	}

	_, err := strftime.New(val)
	return err
}

func (s *Strftime) IsEmpty() bool {
	return len(string(*s)) == 0
}
