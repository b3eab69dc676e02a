package abi

import (
	"fmt"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
)

// Markdown renders the document for humans.
func (d *Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s v%s\n\n", d.Name, d.Version)
	fmt.Fprintf(&b, "State is stored as **%s**: `%s`.\n\n", d.StateCodec, d.State.Name())

	b.WriteString("| Method | Kind | Flags | Arguments | Returns |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, m := range d.Methods {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
			m.Name, m.Kind, flags(m), params(m), returns(m))
	}

	if len(d.ErrorTypes) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range d.ErrorTypes {
			fmt.Fprintf(&b, "- `%s`\n", e)
		}
	}
	return b.String()
}

func flags(m Method) string {
	var out []string
	if m.Payable {
		out = append(out, "payable")
	}
	if m.Private {
		out = append(out, "private")
	}
	if m.IgnoresState {
		out = append(out, "ignore_state")
	}
	if m.Return.PersistOnError {
		out = append(out, "persist_on_error")
	}
	if m.Serialization != m.ArgsSerialization {
		out = append(out, fmt.Sprintf("args %s", m.ArgsSerialization))
	} else {
		out = append(out, m.Serialization.String())
	}
	return strings.Join(out, ", ")
}

func params(m Method) string {
	if len(m.Params) == 0 {
		return "-"
	}
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = fmt.Sprintf("`%s %s`", p.Name, p.Type)
	}
	return strings.Join(parts, ", ")
}

func returns(m Method) string {
	if m.Kind == domain.Init {
		return "state"
	}
	out := "`" + m.Return.Success.String() + "`"
	if m.ErrorType != "" {
		out += " or `" + m.ErrorType + "`"
	} else if m.Return.Error.Interface {
		out += " or error"
	}
	return out
}
