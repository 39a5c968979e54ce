package arduino

import (
	"encoding/json"
	"strings"
)

// noOutputPlaceholder is the success text used when the CLI exits
// cleanly without writing anything to either stream. Some commands,
// config init among them, are silent on success.
const noOutputPlaceholder = "No output"

// errorDocument is the JSON shape the Arduino CLI writes to stderr
// when a command fails in json output mode.
type errorDocument struct {
	Error  string `json:"error"`
	Output struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"output"`
}

// errorDocumentText extracts a human readable message from a stderr
// error document. The embedded tool output is preferred because it
// names the actual failure; the envelope error is the fallback. Returns
// "" when the bytes are not an error document.
func errorDocumentText(raw []byte) string {
	var doc errorDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	combined := strings.TrimSpace(doc.Output.Stdout + doc.Output.Stderr)
	if combined != "" {
		return combined
	}
	return strings.TrimSpace(doc.Error)
}

// parseOutput turns a finished CLI invocation into result data or an
// error. Stderr takes precedence over stdout, the exit code decides
// success, and a clean empty run yields a placeholder rather than nil.
func parseOutput(args []string, stdout, stderr []byte, exitCode int) (any, error) {
	outText := strings.TrimSpace(string(stdout))
	errText := strings.TrimSpace(string(stderr))

	var data any
	switch {
	case errText != "":
		if text := errorDocumentText(stderr); text != "" {
			data = text
		} else {
			data = errText
		}
	case outText != "":
		var decoded any
		if err := json.Unmarshal(stdout, &decoded); err == nil {
			data = decoded
		} else {
			data = outText
		}
	default:
		data = noOutputPlaceholder
	}

	if exitCode != 0 {
		return nil, &ExecutionError{
			Args:     args,
			ExitCode: exitCode,
			Stdout:   outText,
			Stderr:   errText,
		}
	}
	return data, nil
}

// dataText flattens parsed result data to a printable string.
func dataText(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
