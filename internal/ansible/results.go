package ansible

import (
	"bytes"
	"fmt"

	"github.com/apenella/go-ansible/pkg/stdoutcallback/results"

	run_model "playbook-runner/datamodel/run-model"
)

// parseResults reads the json stdout callback output and returns the recap per host.
func (c *Client) parseResults(out []byte) (map[string]run_model.HostStats, error) {
	out = jsonStart(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("no json output from playbook")
	}

	res, err := results.ParseJSONResultsStream(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse json result stream: %w", err)
	}

	for _, play := range res.Plays {
		for _, task := range play.Tasks {
			for host, content := range task.Hosts {
				if content.Failed {
					c.logger.Warn().
						Str("task", task.Task.Name).
						Str("host", host).
						Str("msg", fmt.Sprint(content.Msg)).
						Msg("Task failed")
					continue
				}
				status := "Finished"
				if content.Changed {
					status = "Changed"
				} else if content.Skipped {
					status = "Skipped: " + content.SkipReason
				}
				c.logger.Debug().
					Str("task", task.Task.Name).
					Str("host", host).
					Str("status", status).
					Str("output", fmt.Sprint(content.Msg)).
					Msg("Task result")
			}
		}
	}

	stats := make(map[string]run_model.HostStats, len(res.Stats))
	for host, s := range res.Stats {
		if s == nil {
			continue
		}
		stats[host] = run_model.HostStats{
			Ok:          s.Ok,
			Changed:     s.Changed,
			Failures:    s.Failures,
			Unreachable: s.Unreachable,
			Skipped:     s.Skipped,
			Rescued:     s.Rescued,
			Ignored:     s.Ignored,
		}
	}
	return stats, nil
}

// jsonStart drops anything ansible printed before the json document, such as
// warnings emitted ahead of the callback output.
func jsonStart(out []byte) []byte {
	for len(out) > 0 {
		trimmed := bytes.TrimLeft(out, " \t\r")
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return trimmed
		}
		idx := bytes.IndexByte(out, '\n')
		if idx < 0 {
			return nil
		}
		out = out[idx+1:]
	}
	return nil
}
