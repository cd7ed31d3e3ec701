package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Command argument limits enforced by the robot server.
const (
	MinSpeed = -100
	MaxSpeed = 100
	MinAngle = -180
	MaxAngle = 180
)

// SpeedCommand is the body of /api/command/speed.
type SpeedCommand struct {
	Speed int `json:"speed"`
}

// LoggingCommand is the body of /api/command/logging.
type LoggingCommand struct {
	Enabled bool `json:"enabled"`
}

// TurnCommand is the body of /api/command/turn.
type TurnCommand struct {
	Angle int  `json:"angle"`
	Snap  bool `json:"snap"`
}

// SetSpeed sets the drive speed in percent; negative values reverse.
func (c *Client) SetSpeed(ctx context.Context, speed int) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d outside [%d, %d]", ErrInvalidArgument, speed, MinSpeed, MaxSpeed)
	}
	return c.do(ctx, opSetSpeed, http.MethodPost, &url.URL{Path: speedPath}, SpeedCommand{Speed: speed}, nil)
}

// SetLogging toggles debug logging on the robot's microcontroller.
func (c *Client) SetLogging(ctx context.Context, enabled bool) error {
	return c.do(ctx, opSetLogging, http.MethodPost, &url.URL{Path: loggingPath}, LoggingCommand{Enabled: enabled}, nil)
}

// DestinationReached tells the robot it has arrived.
func (c *Client) DestinationReached(ctx context.Context) error {
	return c.do(ctx, opDestinationReached, http.MethodPost, &url.URL{Path: destinationReachedPath}, nil, nil)
}

// FollowLine starts line following.
func (c *Client) FollowLine(ctx context.Context) error {
	return c.do(ctx, opFollowLine, http.MethodPost, &url.URL{Path: followPath}, nil, nil)
}

// Turn rotates by angle degrees. With snap the robot aligns to the next line.
func (c *Client) Turn(ctx context.Context, angle int, snap bool) error {
	if angle < MinAngle || angle > MaxAngle {
		return fmt.Errorf("%w: angle %d outside [%d, %d]", ErrInvalidArgument, angle, MinAngle, MaxAngle)
	}
	return c.do(ctx, opTurn, http.MethodPost, &url.URL{Path: turnPath}, TurnCommand{Angle: angle, Snap: snap}, nil)
}
