package security

import (
	"regexp"
	"strings"

	"github.com/kivosy/aegis/internal/domain"
)

// cmdTagPattern is the command-tag wire grammar: [CMD: <NAME>|<ARGS>] where
// NAME matches \w+ and ARGS is any text up to the next ]. Must stay bit-exact
// for interop.
var cmdTagPattern = regexp.MustCompile(`\[CMD:\s*(\w+)\|([^\]]*)\]`)

// dangerousConstructPattern pairs a regex for a dangerous construct in
// generated text with its classification.
type dangerousConstructPattern struct {
	pattern *regexp.Regexp
	kind    domain.ToolMatchKind
}

func construct(expr string, kind domain.ToolMatchKind) dangerousConstructPattern {
	return dangerousConstructPattern{pattern: regexp.MustCompile(`(?i)` + expr), kind: kind}
}

var dangerousConstructs = []dangerousConstructPattern{
	// Shell execution
	construct(`\[CMD:\s*(EXEC|SHELL|RUN)\|`, domain.ToolMatchShellExec),
	construct(`subprocess\.(run|call|Popen)`, domain.ToolMatchShellExec),
	construct(`os\.system\(`, domain.ToolMatchShellExec),
	construct(`rm\s+-rf`, domain.ToolMatchShellExec),

	// File operations
	construct(`\[CMD:\s*DELETE\|`, domain.ToolMatchFileDelete),
	construct(`os\.remove\(|shutil\.rmtree\(`, domain.ToolMatchFileDelete),
	construct(`\.write\(|\.write_text\(`, domain.ToolMatchFileWrite),

	// External data fetching
	construct(`requests\.(get|post|put|delete)\(`, domain.ToolMatchNetworkRequest),
	construct(`urllib\.request\.urlopen\(`, domain.ToolMatchNetworkRequest),

	// Credential access
	construct(`(api_key|password|token|secret)\s*=`, domain.ToolMatchCredentialAccess),
}

// RestrictedCommands are command names that always count as dangerous when
// they appear as tags, independent of the blacklist the gate enforces.
var RestrictedCommands = map[string]bool{
	"EXEC": true, "SHELL": true, "DELETE": true,
	"WRITE": true, "RUN": true, "SPAWN": true,
}

// ParseCommandTags extracts every command tag from text, with the name
// case-normalized to uppercase.
func ParseCommandTags(text string) []domain.CommandTag {
	var tags []domain.CommandTag
	for _, idx := range cmdTagPattern.FindAllStringSubmatchIndex(text, -1) {
		tags = append(tags, domain.CommandTag{
			Type:     strings.ToUpper(text[idx[2]:idx[3]]),
			RawArgs:  text[idx[4]:idx[5]],
			Position: idx[0],
		})
	}
	return tags
}

// ScanForDangerousTools scans generated text for dangerous constructs and
// restricted command tags. Any finding requires approval.
func ScanForDangerousTools(text string) domain.ToolScan {
	var found []domain.ToolMatch

	for _, c := range dangerousConstructs {
		for _, loc := range c.pattern.FindAllStringIndex(text, -1) {
			found = append(found, domain.ToolMatch{
				Kind:        c.kind,
				MatchedText: text[loc[0]:loc[1]],
				Position:    loc[0],
			})
		}
	}

	for _, tag := range ParseCommandTags(text) {
		if RestrictedCommands[tag.Type] {
			found = append(found, domain.ToolMatch{
				Kind:        domain.ToolMatchRestrictedCommand,
				Command:     tag.Type,
				MatchedText: "[CMD: " + tag.Type + "|",
				Position:    tag.Position,
			})
		}
	}

	return domain.ToolScan{
		Found:            found,
		RequiresApproval: len(found) > 0,
	}
}
