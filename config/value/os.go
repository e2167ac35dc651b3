package value

import (
	"fmt"
	"os"
	"strings"
)

// unquote removes one pair of surrounding quotes as they are left over when
// paths are copied from a shell or a file manager.
func unquote(val string) string {
	val = strings.TrimSpace(val)

	if len(val) >= 2 {
		if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
			val = val[1 : len(val)-1]
		}
	}

	return val
}

// must directory

type MustDir string

func NewMustDir(p *string, val string) *MustDir {
	*p = val

	return (*MustDir)(p)
}

func (u *MustDir) Set(val string) error {
	*u = MustDir(unquote(val))
	return nil
}

func (u *MustDir) String() string {
	return string(*u)
}

func (u *MustDir) Validate() error {
	val := string(*u)

	if len(strings.TrimSpace(val)) == 0 {
		return fmt.Errorf("path name must not be empty")
	}

	finfo, err := os.Stat(val)
	if err != nil {
		return fmt.Errorf("%s does not exist", val)
	}

	if !finfo.IsDir() {
		return fmt.Errorf("%s is not a directory", val)
	}

	return nil
}

func (u *MustDir) IsEmpty() bool {
	return len(string(*u)) == 0
}

// directory, will be created if it doesn't exist

type Dir string

func NewDir(p *string, val string) *Dir {
	*p = val

	return (*Dir)(p)
}

func (u *Dir) Set(val string) error {
	*u = Dir(unquote(val))
	return nil
}

func (u *Dir) String() string {
	return string(*u)
}

func (u *Dir) Validate() error {
	val := string(*u)

	if len(strings.TrimSpace(val)) == 0 {
		return nil
	}

	finfo, err := os.Stat(val)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	if !finfo.IsDir() {
		return fmt.Errorf("%s is not a directory", val)
	}

	return nil
}

func (u *Dir) IsEmpty() bool {
	return len(string(*u)) == 0
}

// regular file

type File string

func NewFile(p *string, val string) *File {
	*p = val

	return (*File)(p)
}

func (u *File) Set(val string) error {
	*u = File(unquote(val))
	return nil
}

func (u *File) String() string {
	return string(*u)
}

func (u *File) Validate() error {
	val := string(*u)

	if len(val) == 0 {
		return nil
	}

	finfo, err := os.Stat(val)
	if err != nil {
		return fmt.Errorf("%s does not exist", val)
	}

	if !finfo.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", val)
	}

	return nil
}

func (u *File) IsEmpty() bool {
	return len(string(*u)) == 0
}
