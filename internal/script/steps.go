package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hslu-pren/ufosure/internal/api"
)

// Action names a single robot command or control step.
type Action string

const (
	ActionSpeed              Action = "speed"
	ActionTurn               Action = "turn"
	ActionFollow             Action = "follow"
	ActionDestinationReached Action = "destination-reached"
	ActionLogging            Action = "logging"
	ActionReset              Action = "reset"
	ActionAlgorithm          Action = "algorithm"
	ActionSleep              Action = "sleep"
	ActionLog                Action = "log"
)

// IsCommand reports whether the action reaches the robot API.
func (a Action) IsCommand() bool {
	switch a {
	case ActionSleep, ActionLog:
		return false
	default:
		return true
	}
}

type stepsFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one entry of a YAML script.
type Step struct {
	Action    Action
	Speed     int
	Angle     int
	Snap      bool
	Enabled   bool
	Algorithm *string
	Duration  time.Duration
	Message   string
}

// String renders the step for run output.
func (s Step) String() string {
	switch s.Action {
	case ActionSpeed:
		return fmt.Sprintf("speed %d", s.Speed)
	case ActionTurn:
		if s.Snap {
			return fmt.Sprintf("turn %d snap", s.Angle)
		}
		return fmt.Sprintf("turn %d", s.Angle)
	case ActionLogging:
		return fmt.Sprintf("logging %t", s.Enabled)
	case ActionAlgorithm:
		if s.Algorithm == nil {
			return "algorithm null"
		}
		return "algorithm " + *s.Algorithm
	case ActionSleep:
		return "sleep " + s.Duration.String()
	case ActionLog:
		return "log " + s.Message
	default:
		return string(s.Action)
	}
}

// UnmarshalYAML accepts either a bare action ("follow") or a single-key
// mapping ("speed: 40", "turn: {angle: 90, snap: true}").
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return s.decode(Action(strings.TrimSpace(node.Value)), nil, node.Line)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: step must have exactly one action", node.Line)
		}
		return s.decode(Action(strings.TrimSpace(node.Content[0].Value)), node.Content[1], node.Line)
	default:
		return fmt.Errorf("line %d: step must be a name or a mapping", node.Line)
	}
}

func (s *Step) decode(action Action, value *yaml.Node, line int) error {
	*s = Step{Action: action}
	switch action {
	case ActionSpeed:
		if err := decodeValue(value, &s.Speed); err != nil {
			return fmt.Errorf("line %d: speed: %w", line, err)
		}
		if s.Speed < api.MinSpeed || s.Speed > api.MaxSpeed {
			return fmt.Errorf("line %d: speed %d outside [%d, %d]", line, s.Speed, api.MinSpeed, api.MaxSpeed)
		}
	case ActionTurn:
		if value != nil && value.Kind == yaml.MappingNode {
			var body struct {
				Angle int  `yaml:"angle"`
				Snap  bool `yaml:"snap"`
			}
			if err := value.Decode(&body); err != nil {
				return fmt.Errorf("line %d: turn: %w", line, err)
			}
			s.Angle, s.Snap = body.Angle, body.Snap
		} else if err := decodeValue(value, &s.Angle); err != nil {
			return fmt.Errorf("line %d: turn: %w", line, err)
		}
		if s.Angle < api.MinAngle || s.Angle > api.MaxAngle {
			return fmt.Errorf("line %d: angle %d outside [%d, %d]", line, s.Angle, api.MinAngle, api.MaxAngle)
		}
	case ActionLogging:
		if err := decodeValue(value, &s.Enabled); err != nil {
			return fmt.Errorf("line %d: logging: %w", line, err)
		}
	case ActionAlgorithm:
		if value == nil || value.Tag == "!!null" || value.Value == "null" {
			return nil
		}
		name := strings.TrimSpace(value.Value)
		if name == "" {
			return fmt.Errorf("line %d: algorithm name required (use null to clear)", line)
		}
		s.Algorithm = &name
	case ActionSleep:
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("line %d: sleep: %w", line, err)
		}
		s.Duration = d
	case ActionLog:
		if value == nil {
			return fmt.Errorf("line %d: log message required", line)
		}
		s.Message = value.Value
	case ActionFollow, ActionDestinationReached, ActionReset:
	default:
		return fmt.Errorf("line %d: unknown action %q", line, action)
	}
	return nil
}

func decodeValue(value *yaml.Node, out any) error {
	if value == nil {
		return fmt.Errorf("value required")
	}
	return value.Decode(out)
}

// parseDuration accepts Go duration strings or plain milliseconds.
func parseDuration(value *yaml.Node) (time.Duration, error) {
	if value == nil {
		return 0, fmt.Errorf("duration required")
	}
	raw := strings.TrimSpace(value.Value)
	if ms, err := strconv.Atoi(raw); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", raw)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}
