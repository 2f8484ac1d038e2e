package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/trovebot/trove/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-threads")
	Args    []string // Possible argument values (for non-option arguments)
}

var configKeys = []string{
	config.SearchDepthKey, config.TimeBudgetMSKey, config.DiscountKey,
	config.ThreadsKey, config.ChainCurveKey, config.ChainBaseKey,
	config.ChainGrowthKey, config.RawWeightKey, config.MobilityWeightKey,
	config.RiskWeightKey, config.MaxCascadeDepthKey, config.RNGSeedKey,
	config.CacheFractionKey, config.DataPathKey, config.ReplayPathKey,
	config.NatsURLKey, config.DebugKey, config.CPUProfileKey,
	config.MemProfileKey,
}

// commandMetadata maps command names to their options and arguments
var commandMetadata = map[string]CommandMetadata{
	"load": {
		Args: []string{"random"},
	},
	"autoplay": {
		Options: []string{"-sessions", "-threads", "-seed", "-file"},
		Args:    []string{"stop", "analyze"},
	},
	"solve": {
		Options: []string{"-remote"},
	},
	"set": {
		Args: configKeys,
	},
	"unset": {
		Args: configKeys,
	},
	"replay": {
		Args: []string{"on", "off", "export"},
	},
	"alias": {
		Args: []string{"set", "delete", "show", "list", "remove", "rm"},
	},
	"help": {
		Args: []string{
			"load", "show", "gen", "solve", "play", "autoplay", "seed",
			"set", "unset", "save", "replay", "script", "alias",
		},
	},
}

// Common command names for command completion
var commandNames = []string{
	"help", "alias", "load", "show", "gen", "solve", "play", "autoplay",
	"seed", "set", "unset", "save", "replay", "script", "exit",
}

// Common values for certain option and key types
var boolValues = []string{"true", "false"}
var curveValues = []string{"linear", "geometric"}

// Do implements the readline.AutoComplete interface
// It provides context-aware autocomplete based on what's been typed
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Get the text up to the cursor position
	text := string(line[:pos])

	// Parse the line using shellquote to handle quoted strings properly
	fields, err := shellquote.Split(text)
	if err != nil {
		// If we can't parse, fall back to simple space splitting
		fields = strings.Fields(text)
	}

	// Check if we're in the middle of typing a word or just after a space
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	// Determine what we're trying to complete
	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		// Completing a command name
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames

		// Also include aliases
		for aliasName := range c.sc.aliases {
			completions = append(completions, aliasName)
		}
	} else {
		// We have a command, now complete its arguments/options
		cmdName := fields[0]

		// Check if this is an alias, and if so, expand it to get the real command
		if aliasValue, isAlias := c.sc.aliases[cmdName]; isAlias {
			aliasFields, err := shellquote.Split(aliasValue)
			if err == nil && len(aliasFields) > 0 {
				cmdName = aliasFields[0]
			}
		}

		if !endsWithSpace && len(fields) > 0 {
			prefix = fields[len(fields)-1]
		}

		// Get the last complete field to check context
		var lastCompleteField string
		if endsWithSpace && len(fields) > 0 {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		// Setting a key: complete the values the key accepts
		if (cmdName == "set" || cmdName == "unset") && lastCompleteField != "" {
			switch lastCompleteField {
			case config.ChainCurveKey:
				completions = curveValues
			case config.DebugKey:
				completions = boolValues
			}
		}

		// If we haven't determined completions yet, show command options/args
		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				// If we're typing something that starts with -, show options
				if strings.HasPrefix(prefix, "-") {
					completions = metadata.Options
				} else {
					// Show args if available, otherwise show options
					if len(metadata.Args) > 0 {
						completions = metadata.Args
					} else {
						completions = metadata.Options
					}
				}
			}
		}
	}

	// Filter completions based on prefix
	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			suffix := completion[len(prefix):]
			matches = append(matches, []rune(suffix))
		}
	}

	return matches, len(prefix)
}
