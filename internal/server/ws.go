// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package server

import (
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/session"
)

// Command types sent by clients.
const (
	CmdToggle     = "toggle"
	CmdStart      = "start"
	CmdStop       = "stop"
	CmdText       = "text"
	CmdStyle      = "style"
	CmdBrush      = "brush"
	CmdBackground = "background"
	CmdViewSize   = "viewSize"
	CmdDragStart  = "dragStart"
	CmdDrag       = "drag"
	CmdDragEnd    = "dragEnd"
	CmdClear      = "clear"
)

// MaxMessageSize bounds one client message. Text content travels whole in
// every text command.
const MaxMessageSize = 1 << 20

// Reply types sent to clients.
const (
	ReplyState = "state"
	ReplyError = "error"
)

// Command is one client message. Only the fields of its type are read.
type Command struct {
	Type   string               `json:"type"`
	Text   *session.TextUpdate  `json:"text,omitempty"`
	Style  *session.StyleUpdate `json:"style,omitempty"`
	Brush  *session.BrushUpdate `json:"brush,omitempty"`
	Color  *color.NRGBA         `json:"color,omitempty"`
	Point  *frame.Point         `json:"point,omitempty"`
	Width  int                  `json:"width,omitempty"`
	Height int                  `json:"height,omitempty"`
}

// Reply is sent after recording commands and on errors. Edits are not
// acknowledged.
type Reply struct {
	Type      string         `json:"type"`
	Recording bool           `json:"recording"`
	Ignored   bool           `json:"ignored,omitempty"`
	Video     *catalog.Video `json:"video,omitempty"`
	Error     string         `json:"error,omitempty"`
}

var errBadCommand = errors.New("bad command")

// conn is the state of one websocket connection.
type conn struct {
	id   string
	ws   *websocket.Conn
	kind frame.Kind

	// recorder is the common part of both session types.
	recorder interface {
		Toggle() (session.Toggled, error)
		Start() error
		Stop() (*catalog.Video, error)
		IsRecording() bool
		Close() error
	}
	text    *session.Text
	drawing *session.Drawing
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	kind, ok := frame.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	c := &conn{id: uuid.NewString(), kind: kind}
	var err error
	switch kind {
	case frame.KindText:
		c.text, err = s.cfg.Factory.NewText()
		c.recorder = c.text
	case frame.KindDrawing:
		c.drawing, err = s.cfg.Factory.NewDrawing()
		c.recorder = c.drawing
	}
	if err != nil {
		ggvideo.Logger().Warn("server: create session", "kind", kind, "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		ggvideo.Logger().Debug("server: upgrade", "error", err)
		c.recorder.Close()
		return
	}
	c.ws = ws

	s.mu.Lock()
	s.conns[c.id] = ws
	s.wg.Add(1)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()
		s.wg.Done()
	}()

	ggvideo.Logger().Info("server: session opened", "conn", c.id, "kind", kind, "remote", r.RemoteAddr)
	c.serve()
	ggvideo.Logger().Info("server: session closed", "conn", c.id)
}

// serve reads commands until the connection fails, then closes the
// session, which stops an active recording.
func (c *conn) serve() {
	defer c.ws.Close()
	defer func() {
		if err := c.recorder.Close(); err != nil {
			ggvideo.Logger().Warn("server: close session", "conn", c.id, "error", err)
		}
	}()
	c.ws.SetReadLimit(MaxMessageSize)

	for {
		var cmd Command
		if err := c.ws.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ggvideo.Logger().Debug("server: read command", "conn", c.id, "error", err)
			}
			return
		}

		reply, err := c.dispatch(cmd)
		if err != nil {
			reply = &Reply{Type: ReplyError, Recording: c.recorder.IsRecording(), Error: err.Error()}
		}
		if reply == nil {
			continue
		}
		c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteJSON(reply); err != nil {
			ggvideo.Logger().Debug("server: write reply", "conn", c.id, "error", err)
			return
		}
	}
}

// dispatch applies cmd to the session. A nil reply means nothing is sent.
func (c *conn) dispatch(cmd Command) (*Reply, error) {
	switch cmd.Type {
	case CmdToggle:
		res, err := c.recorder.Toggle()
		if err != nil {
			return nil, err
		}
		return &Reply{Type: ReplyState, Recording: res.Recording, Ignored: res.Ignored, Video: res.Video}, nil
	case CmdStart:
		if err := c.recorder.Start(); err != nil {
			return nil, err
		}
		return &Reply{Type: ReplyState, Recording: c.recorder.IsRecording()}, nil
	case CmdStop:
		v, err := c.recorder.Stop()
		if err != nil && v == nil {
			return nil, err
		}
		return &Reply{Type: ReplyState, Recording: c.recorder.IsRecording(), Video: v}, nil
	}

	switch c.kind {
	case frame.KindText:
		return nil, c.dispatchText(cmd)
	default:
		return nil, c.dispatchDrawing(cmd)
	}
}

func (c *conn) dispatchText(cmd Command) error {
	switch {
	case cmd.Type == CmdText && cmd.Text != nil:
		return c.text.UpdateText(*cmd.Text)
	case cmd.Type == CmdStyle && cmd.Style != nil:
		return c.text.UpdateStyle(*cmd.Style)
	default:
		return fmt.Errorf("%w %q for text session", errBadCommand, cmd.Type)
	}
	return nil
}

func (c *conn) dispatchDrawing(cmd Command) error {
	d := c.drawing
	switch {
	case cmd.Type == CmdBrush && cmd.Brush != nil:
		d.SetBrush(*cmd.Brush)
	case cmd.Type == CmdBackground && cmd.Color != nil:
		d.SetBackground(*cmd.Color)
	case cmd.Type == CmdViewSize:
		return d.SetViewSize(cmd.Width, cmd.Height)
	case cmd.Type == CmdDragStart && cmd.Point != nil:
		d.DragStart(*cmd.Point)
	case cmd.Type == CmdDrag && cmd.Point != nil:
		d.Drag(*cmd.Point)
	case cmd.Type == CmdDragEnd:
		d.DragEnd()
	case cmd.Type == CmdClear:
		d.Clear()
	default:
		return fmt.Errorf("%w %q for drawing session", errBadCommand, cmd.Type)
	}
	return nil
}
