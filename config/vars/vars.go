// Package vars keeps a list of named configuration values together with their
// environment variable names and collects the messages from merging and validating them.
package vars

import (
	"fmt"
	"os"

	"github.com/datarhei/jsondir/config/value"
)

// Source tells where the current value of a variable comes from.
type Source string

const (
	SourceDefault Source = "default"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

type variable struct {
	value       value.Value // The actual value
	defVal      string      // The default value in string representation
	name        string      // A name for this value
	envName     string      // The environment variable that corresponds to this value
	envAltNames []string    // Alternative environment variable names
	description string      // A desriptions for this value
	required    bool        // Whether a non-empty value is required
	disguise    bool        // Whether the value should be disguised if printed
	source      Source      // Where the value has been set from
}

type Variable struct {
	Value       string
	Name        string
	EnvName     string
	Description string
	Source      Source
}

type message struct {
	message  string   // The log message
	variable Variable // The config field this message refers to
	level    string   // The loglevel for this message
}

type Variables struct {
	vars []*variable
	logs []message
}

func (vs *Variables) Register(val value.Value, name, envName string, envAltNames []string, description string, required, disguise bool) {
	vs.vars = append(vs.vars, &variable{
		value:       val,
		defVal:      val.String(),
		name:        name,
		envName:     envName,
		envAltNames: envAltNames,
		description: description,
		required:    required,
		disguise:    disguise,
		source:      SourceDefault,
	})
}

func (vs *Variables) SetDefault(name string) {
	v := vs.findVariable(name)
	if v == nil {
		return
	}

	v.value.Set(v.defVal)
	v.source = SourceDefault
}

func (vs *Variables) Get(name string) (string, error) {
	v := vs.findVariable(name)
	if v == nil {
		return "", fmt.Errorf("variable '%s' not found", name)
	}

	return v.value.String(), nil
}

// Set sets the value of a variable from an explicit source, e.g. a command line flag.
// Such a value has precedence over the environment.
func (vs *Variables) Set(name, val string) error {
	v := vs.findVariable(name)
	if v == nil {
		return fmt.Errorf("variable '%s' not found", name)
	}

	if err := v.value.Set(val); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	v.source = SourceFlag

	return nil
}

// Describe returns the description and the environment variable name of a variable.
func (vs *Variables) Describe(name string) (Variable, bool) {
	v := vs.findVariable(name)
	if v == nil {
		return Variable{}, false
	}

	return v.export(), true
}

func (vs *Variables) Log(level, name string, format string, args ...interface{}) {
	v := vs.findVariable(name)
	if v == nil {
		return
	}

	l := message{
		message:  fmt.Sprintf(format, args...),
		variable: v.export(),
		level:    level,
	}

	vs.logs = append(vs.logs, l)
}

// Merge sets the values from their environment variables. Values that have been
// set with Set are not overwritten.
func (vs *Variables) Merge() {
	for _, v := range vs.vars {
		if len(v.envName) == 0 || v.source == SourceFlag {
			continue
		}

		envval, ok := os.LookupEnv(v.envName)
		if !ok {
			foundAltName := false

			for _, envName := range v.envAltNames {
				envval, ok = os.LookupEnv(envName)
				if ok {
					foundAltName = true
					vs.Log("warn", v.name, "deprecated name, please use %s", v.envName)
					break
				}
			}

			if !foundAltName {
				continue
			}
		}

		err := v.value.Set(envval)
		if err != nil {
			vs.Log("error", v.name, "%s", err.Error())
		}

		v.source = SourceEnv
	}
}

func (vs *Variables) Source(name string) Source {
	v := vs.findVariable(name)
	if v == nil {
		return SourceDefault
	}

	return v.source
}

func (vs *Variables) Validate() {
	for _, v := range vs.vars {
		vs.Log("info", v.name, "%s", "")

		err := v.value.Validate()
		if err != nil {
			vs.Log("error", v.name, "%s", err.Error())
		}

		if v.required && v.value.IsEmpty() {
			vs.Log("error", v.name, "a value is required")
		}
	}
}

func (vs *Variables) ResetLogs() {
	vs.logs = nil
}

func (vs *Variables) Messages(logger func(level string, v Variable, message string)) {
	for _, l := range vs.logs {
		logger(l.level, l.variable, l.message)
	}
}

func (vs *Variables) HasErrors() bool {
	for _, l := range vs.logs {
		if l.level == "error" {
			return true
		}
	}

	return false
}

// Overrides returns the names of the variables that don't have their default value.
func (vs *Variables) Overrides() []string {
	overrides := []string{}

	for _, v := range vs.vars {
		if v.source != SourceDefault {
			overrides = append(overrides, v.name)
		}
	}

	return overrides
}

func (vs *Variables) findVariable(name string) *variable {
	for _, v := range vs.vars {
		if v.name == name {
			return v
		}
	}

	return nil
}

func (v *variable) export() Variable {
	variable := Variable{
		Value:       v.value.String(),
		Name:        v.name,
		EnvName:     v.envName,
		Description: v.description,
		Source:      v.source,
	}

	if v.disguise {
		variable.Value = "***"
	}

	return variable
}
