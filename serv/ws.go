package serv

import (
	"net/http"
	"time"

	"github.com/go-http-utils/headers"
	"github.com/gorilla/websocket"
)

// idle connections are closed after wsIdleTimeout
const (
	wsIdleTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsRequest is a conversion request sent over the websocket. The id is
// echoed back so clients can match replies.
type wsRequest struct {
	ID string `json:"id,omitempty"`
	SQLRequest
}

type wsMessage struct {
	ID     string      `json:"id,omitempty"`
	Type   string      `json:"type"` // "result" or "error"
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// wsHandler converts scripts sent as JSON messages over a websocket, one
// reply per message
// GET /api/v1/sql/ws
func (s1 *HttpService) wsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := s1.Load().(*service)

		upgrader := websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     s.checkOrigin,
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader has already replied
			s.log.Debugf("websocket upgrade: %s", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(s.conf.MaxRequestBytes)

		for {
			conn.SetReadDeadline(time.Now().Add(wsIdleTimeout)) //nolint:errcheck

			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debugf("websocket closed: %s", err)
				}
				return
			}

			// pick up config reloads between messages
			s = s1.Load().(*service)
			msg := s.wsReply(r, req)

			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)) //nolint:errcheck
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debugf("websocket write: %s", err)
				return
			}
		}
	})
}

func (s *service) wsReply(r *http.Request, req wsRequest) wsMessage {
	msg := wsMessage{ID: req.ID, Type: "result"}

	switch req.Action {
	case "", actionTranspile:
		ctx, cancel := s.requestContext(r)
		defer cancel()

		res, _, err := s.transpile(ctx, req.SQLRequest)
		if err != nil {
			msg.Type = "error"
			msg.Error = err.Error()
			return msg
		}
		msg.Result = res

	case actionAnalyze:
		msg.Result = s.analyze(r.Context(), req.SQLRequest)

	case actionDialects:
		msg.Result = supportedDialects()

	default:
		msg.Type = "error"
		msg.Error = "unknown action: " + req.Action
	}
	return msg
}

// checkOrigin allows same origin requests and the configured CORS origins
func (s *service) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get(headers.Origin)
	if origin == "" {
		return true
	}

	for _, o := range s.conf.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}

	// same origin
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
