package server

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dc5v/tictacdb/internal/query"
	"github.com/dc5v/tictacdb/pkg/errors"
	"github.com/dc5v/tictacdb/pkg/options"
)

// request is the single JSON object every connection carries. Pointer
// fields distinguish "absent" from zero values where the protocol defaults
// depend on it.
type request struct {
	Query     *string   `json:"query"`
	Tags      []string  `json:"tags"`
	Data      []float64 `json:"data"`
	Condition string    `json:"condition"`
	StartTime *int64    `json:"startTime"`
	EndTime   *int64    `json:"endTime"`
}

// envelope is the error reply shape.
type envelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// handleConn runs one request to completion. The connection is closed on
// every exit path; a failure here terminates this request only.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	buffer := make([]byte, options.RequestBufferSize)
	n, err := conn.Read(buffer)
	if n == 0 {
		if err != nil {
			s.log.Debugw("Request read failed", "remote", conn.RemoteAddr(), "error", err)
		}
		return
	}

	var req request
	if err := json.Unmarshal(buffer[:n], &req); err != nil {
		s.sendError(conn, errors.WireCodeParse, "Invalid request. Failed to parse JSON.")
		return
	}

	if req.Query == nil {
		s.sendError(conn, errors.WireCodeMissingQuery, "Invalid request. Query command not found.")
		return
	}

	start := time.Now()

	switch *req.Query {
	case "push":
		s.handlePush(conn, &req, start)
	case "search":
		s.handleSearch(conn, &req, start)
	case "evaluate":
		s.handleEvaluate(conn, &req, start)
	default:
		s.sendError(conn, errors.WireCodeUnknownQuery, "Invalid request. Not supported query command.")
	}
}

func (s *Server) handlePush(conn net.Conn, req *request, start time.Time) {
	recordUID, _, err := s.engine.Push(req.Tags, req.Data)
	if err != nil {
		s.fail(conn, "push", err)
		return
	}

	reply, _ := json.Marshal(map[string]string{"uid": recordUID})
	if _, err := conn.Write(reply); err != nil {
		s.log.Debugw("Push reply send failed", "uid", recordUID, "error", err)
	}

	payload, _ := json.Marshal(req.Data)
	s.audit.Record("push", req.Tags, "-", string(payload), time.Since(start))
}

func (s *Server) handleSearch(conn net.Conn, req *request, start time.Time) {
	params := paramsOf(req)
	if err := s.engine.Search(conn, params); err != nil {
		s.fail(conn, "search", err)
		return
	}
	s.audit.Record("search", req.Tags, conditionOf(req), windowOf(params), time.Since(start))
}

func (s *Server) handleEvaluate(conn net.Conn, req *request, start time.Time) {
	params := paramsOf(req)
	if err := s.engine.Evaluate(conn, params); err != nil {
		s.fail(conn, "evaluate", err)
		return
	}
	s.audit.Record("evaluate", req.Tags, conditionOf(req), windowOf(params), time.Since(start))
}

// fail converts an operation error into its client-visible form. Request
// errors carry a wire code and become envelopes. A vanished client gets
// nothing. Anything else is a server-side fault: logged, request aborted,
// socket closed without a reply.
func (s *Server) fail(conn net.Conn, operation string, err error) {
	if re, ok := errors.AsRequestError(err); ok {
		s.sendError(conn, re.WireCode(), re.Error())
		return
	}

	if errors.GetErrorCode(err) == errors.ErrorCodeClientGone {
		s.log.Debugw("Client went away mid-reply", "operation", operation, "error", err)
		return
	}

	s.log.Errorw("Request aborted",
		"operation", operation,
		"code", errors.GetErrorCode(err),
		"details", errors.GetErrorDetails(err),
		"error", err,
	)
}

func (s *Server) sendError(conn net.Conn, wireCode int, message string) {
	reply, _ := json.Marshal(envelope{Error: wireCode, Message: message})
	if _, err := conn.Write(reply); err != nil {
		s.log.Debugw("Error envelope send failed", "wireCode", wireCode, "error", err)
	}
}

func paramsOf(req *request) *query.Params {
	return &query.Params{
		Tags:      req.Tags,
		Condition: req.Condition,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

func conditionOf(req *request) string {
	if req.Condition == "" {
		return "or"
	}
	return req.Condition
}

func windowOf(params *query.Params) string {
	startMS, endMS := int64(0), int64(0)
	if params.StartTime != nil {
		startMS = *params.StartTime
	}
	if params.EndTime != nil {
		endMS = *params.EndTime
	}
	return fmt.Sprintf("startTime=%d endTime=%d", startMS, endMS)
}
