package repl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
)

// replSource names input typed at the prompt in error positions.
const replSource = "<repl>"

// evaluate runs one line of eval-mode input. A line starting with ':' is
// a statement executed in the global frame, so variables it sets stay
// visible; anything else is an expression.
func evaluate(ctx context.Context, sb *soup.Sandbox, input string) (string, error) {
	if strings.HasPrefix(input, ":") {
		t, err := sb.Parse(replSource, input+"\n")
		if err != nil {
			return "", err
		}

		out, err := sb.Run(ctx, t)
		if err != nil {
			return "", err
		}

		return strings.TrimSuffix(out.Text, "\n"), nil
	}

	v, err := sb.Eval(ctx, input)
	if err != nil {
		return "", err
	}

	return formatResult(v), nil
}

// formatResult renders a value with its type.
func formatResult(v any) string {
	s := soup.Stringify(v)
	if _, ok := v.(string); ok {
		s = fmt.Sprintf("%q", s)
	}

	return s + hintStyle.Render(" : "+soup.TypeOf(v))
}

// load runs a script or renders a template file into the sandbox.
func load(ctx context.Context, sb *soup.Sandbox, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var out soup.Output

	if filepath.Ext(path) == pkg.ScriptExt {
		out, err = sb.RunScript(ctx, path, string(data))
	} else {
		out, err = sb.RenderString(ctx, path, string(data))
	}

	if err != nil {
		return "", err
	}

	return out.Text, nil
}

// listVars describes every visible variable.
func listVars(sb *soup.Sandbox) string {
	var b strings.Builder

	for _, name := range sb.Scope().Names() {
		v, _ := sb.Get(name)
		preview := soup.Stringify(v)

		if len(preview) > 40 {
			preview = preview[:37] + "..."
		}

		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(soup.TypeOf(v)+" "+preview))
	}

	return b.String()
}

// listModifiers describes every modifier of the sandbox registry.
func listModifiers(sb *soup.Sandbox) string {
	var b strings.Builder

	for _, m := range sb.Registry().Modifiers() {
		fmt.Fprintf(&b, "  %s\n", m.Signature())
	}

	return b.String()
}

func listFuncs(sb *soup.Sandbox) string {
	var b strings.Builder

	for _, name := range sb.Funcs() {
		fmt.Fprintf(&b, "  %s()\n", name)
	}

	return b.String()
}

// command runs a control-mode command and returns its output.
func command(ctx context.Context, sb *soup.Sandbox, input string) (string, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}

	switch parts[0] {
	case "h", "help":
		return helpMessage(), nil
	case "v", "vars":
		return listVars(sb), nil
	case "m", "mods":
		return listModifiers(sb), nil
	case "f", "funcs":
		return listFuncs(sb), nil
	case "l", "load":
		if len(parts) < 2 {
			return "", ErrMissingArg.With(slog.String("command", parts[0]))
		}

		return load(ctx, sb, parts[1])
	}

	return "", ErrUnknownCommand.With(slog.String("command", parts[0]))
}
