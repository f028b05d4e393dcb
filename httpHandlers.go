package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"breath-classification/metrics"
	"breath-classification/models"
	"breath-classification/respiratory"
	"breath-classification/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type apiError struct {
	Message string `json:"message"`
}

// maxUploadBytes bounds the multipart upload size (a few minutes of 44.1 kHz
// PCM is well under this).
const maxUploadBytes = 64 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// statusForError maps pipeline error kinds to HTTP status codes:
// user-fixable audio problems are 4xx, model absence is 503, anything else
// inside the pipeline is a 500.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, respiratory.ErrDecode):
		return http.StatusBadRequest, "unable to decode audio; please re-record and upload a WAV file"
	case errors.Is(err, respiratory.ErrInvalidAudio):
		return http.StatusBadRequest, "no usable audio signal detected; please re-record in a quieter setting"
	case errors.Is(err, respiratory.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "classification model is not available"
	default:
		return http.StatusInternalServerError, "classification failed"
	}
}

// round6 mirrors the precision the clients expect in probability fields.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func roundedSummary(result *respiratory.ClassificationResult, latencyMs float64, cached bool) models.AnalysisSummary {
	probabilities := make(map[string]float64, len(result.AllProbabilities))
	for class, p := range result.AllProbabilities {
		probabilities[class] = round6(p)
	}
	return models.AnalysisSummary{
		Prediction:       result.Prediction,
		Confidence:       round6(result.Confidence),
		AllProbabilities: probabilities,
		LatencyMs:        latencyMs,
		Cached:           cached,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics wraps a handler with per-endpoint request counting and
// duration observation.
func withMetrics(m *metrics.Metrics, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		m.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(recorder.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	}
}

func newPredictHandler(service *respiratory.Service) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			logger.ErrorContext(ctx, "failed to parse multipart form", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid upload payload")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing 'file' upload field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read upload", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "unable to read uploaded file")
			return
		}

		started := time.Now()
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")

		result, cached, err := service.ClassifyBytes(data, ext)
		if err != nil {
			status, message := statusForError(err)
			wrapped := xerrors.New(err)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(ctx, "classification failed",
					slog.String("filename", header.Filename),
					slog.Any("error", wrapped))
			} else {
				logger.InfoContext(ctx, "rejected upload",
					slog.String("filename", header.Filename),
					slog.String("reason", err.Error()))
			}
			writeJSONError(w, status, message)
			return
		}

		latency := time.Since(started).Seconds() * 1000
		logger.InfoContext(ctx, "classification complete",
			slog.String("prediction", result.Prediction),
			slog.Float64("confidence", result.Confidence),
			slog.Float64("latencyMs", latency),
			slog.Bool("cached", cached),
		)

		writeJSON(w, http.StatusOK, roundedSummary(result, latency, cached))
	}
}

func newClassesHandler(service *respiratory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{
			"classes": service.Forest().Classes(),
		})
	}
}

func newHealthHandler(service *respiratory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		hits, misses := service.Cache().Stats()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"model":  service.Forest().Info(),
			"cache": map[string]interface{}{
				"entries": service.Cache().Len(),
				"hits":    hits,
				"misses":  misses,
			},
		})
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	allowOriginFunc := func(r *http.Request) bool {
		return true
	}

	modelPath := utils.GetEnv("RESP_MODEL_PATH", filepath.Join("respiratory", "model.json"))
	forest, err := respiratory.NewForestFromFile(modelPath)
	if err != nil {
		// Inference cannot proceed without the artifact; refuse to serve.
		log.Fatalf("failed to load respiratory classifier: %v", err)
	}
	// The example-artifact fallback is for fresh checkouts; production
	// deployments set RESP_REQUIRE_MODEL so a missing artifact is fatal
	// instead of silently serving the bundled example.
	if forest.Info().UsingExample && utils.GetEnvBool("RESP_REQUIRE_MODEL", false) {
		log.Fatalf("model artifact missing at %s and RESP_REQUIRE_MODEL is set", modelPath)
	}

	serviceMetrics := metrics.NewMetrics()
	service := respiratory.NewService(forest, respiratory.ServiceConfig{
		CacheSize:   utils.GetEnvInt("RESP_CACHE_SIZE", respiratory.DefaultCacheSize),
		SilenceGate: utils.GetEnvBool("RESP_SILENCE_GATE", false),
	}, serviceMetrics)

	controller := newSocketController(service)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		log.Printf("CONNECTED: %s, remote addr: %s\n", socket.ID(), socket.RemoteAddr())
		controller.emitModelInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestModelInfo", func(socket socketio.Conn) {
		controller.handleRequestModelInfo(socket)
	})

	server.OnEvent("/", "newRecording", func(socket socketio.Conn, msg string) {
		// Run handler in goroutine to prevent blocking, with panic recovery.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleNewRecording for socket %s: %v\n", socket.ID(), r)
					socket.Emit("analysisError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleNewRecording(socket, msg)
		}()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/predict", withMetrics(serviceMetrics, "/api/predict", newPredictHandler(service)))
	mux.HandleFunc("/api/classes", withMetrics(serviceMetrics, "/api/classes", newClassesHandler(service)))
	mux.HandleFunc("/api/health", withMetrics(serviceMetrics, "/api/health", newHealthHandler(service)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, protocol == "https", port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsServer := &http.Server{
			Addr: ":" + port,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on port %s\n", port)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("https listen error: %s\n", err)
		}
		return
	}

	log.Printf("Starting HTTP server on port %s\n", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("http listen error: %s\n", err)
	}
}
