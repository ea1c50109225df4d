package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/api/responses"
	"github.com/Kunwar-bir-singh/Online-Assessment/api/validators"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/orders"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/stream"
	pkgAuth "github.com/Kunwar-bir-singh/Online-Assessment/pkg/auth"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/auth/session"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/gorilla/websocket"
)

const currentStatusMessage = "Current order status"

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// token auth happens before the upgrade, origins are not restricted
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamParams bundles the dependencies shared by the stream endpoints.
type StreamParams struct {
	Orders   orders.Service
	Hub      *stream.Hub
	Metrics  *metrics.Metrics
	JWT      config.JWTConfig
	Verifier session.AccessSessionChecker
	Logger   *logger.Logger
}

// authorizeStream authenticates the query-param token and checks order
// ownership. EventSource cannot set headers, hence ?token=.
func authorizeStream(r *http.Request, p StreamParams) (int64, *orders.OrderDTO, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(p.JWT, token)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token")
	}
	if p.Verifier != nil {
		ok, err := p.Verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}

	orderID, err := validators.ParsePathID(r, "orderId")
	if err != nil {
		return 0, nil, err
	}

	order, err := p.Orders.GetOrderForUser(r.Context(), claims.UserID, orderID)
	if err != nil {
		return 0, nil, err
	}
	return claims.UserID, order, nil
}

// OrderStreamSSE pushes order status updates over server-sent events.
func OrderStreamSSE(p StreamParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, order, err := authorizeStream(r, p)
		if err != nil {
			responses.WriteError(r.Context(), p.Logger, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), p.Logger, w,
				pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		frames, unsubscribe, err := p.Hub.Subscribe(userID)
		if err != nil {
			responses.WriteError(r.Context(), p.Logger, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "subscribe"))
			return
		}
		defer unsubscribe()

		p.Metrics.StreamSubscribers.Inc()
		defer p.Metrics.StreamSubscribers.Dec()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		writeSSE(w, mustMarshal(stream.NewConnectedEvent(userID)))
		writeSSE(w, mustMarshal(stream.NewStatusEvent(order.ID, order.Status, currentStatusMessage, time.Now())))
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				writeSSE(w, frame)
				flusher.Flush()
			}
		}
	}
}

// OrderStreamWS pushes the same frames over a websocket for clients that
// prefer a bidirectional transport.
func OrderStreamWS(p StreamParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, order, err := authorizeStream(r, p)
		if err != nil {
			responses.WriteError(r.Context(), p.Logger, w, err)
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client
			return
		}
		defer conn.Close()

		frames, unsubscribe, err := p.Hub.Subscribe(userID)
		if err != nil {
			return
		}
		defer unsubscribe()

		p.Metrics.StreamSubscribers.Inc()
		defer p.Metrics.StreamSubscribers.Dec()

		// reader goroutine notices the peer going away
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteMessage(websocket.TextMessage, mustMarshal(stream.NewConnectedEvent(userID))); err != nil {
			return
		}
		current := stream.NewStatusEvent(order.ID, order.Status, currentStatusMessage, time.Now())
		if err := conn.WriteMessage(websocket.TextMessage, mustMarshal(current)); err != nil {
			return
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case <-done:
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, frame []byte) {
	fmt.Fprintf(w, "data: %s\n\n", frame)
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
