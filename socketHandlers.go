package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"breath-classification/models"
	"breath-classification/respiratory"
	"breath-classification/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	service *respiratory.Service
}

func newSocketController(service *respiratory.Service) *socketController {
	return &socketController{service: service}
}

func (c *socketController) emitModelInfo(socket socketio.Conn) {
	socket.Emit("modelInfo", c.service.Forest().Info())
}

func (c *socketController) handleRequestModelInfo(socket socketio.Conn) {
	c.emitModelInfo(socket)
}

func (c *socketController) handleNewRecording(socket socketio.Conn, recordData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	if recordData == "" {
		logger.ErrorContext(ctx, "no data received in newRecording event",
			slog.String("socketID", socket.ID()))
		socket.Emit("analysisError", map[string]string{"message": "no audio data received"})
		return
	}

	var recData models.RecordData
	if err := json.Unmarshal([]byte(recordData), &recData); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse record payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid audio payload"})
		return
	}

	logger.InfoContext(ctx, "received recording",
		slog.String("socketID", socket.ID()),
		slog.Int("sampleRate", recData.SampleRate),
		slog.Int("channels", recData.Channels),
		slog.Float64("duration", recData.Duration),
	)

	audioBytes, err := base64.StdEncoding.DecodeString(recData.Audio)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to decode base64 audio", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "unable to decode audio"})
		return
	}

	started := time.Now()

	result, cached, err := c.service.ClassifyBytes(audioBytes, "wav")
	if err != nil {
		err := xerrors.New(err)
		log.Printf("[handleNewRecording] classification error for socket %s: %v\n", socket.ID(), err)
		logger.ErrorContext(ctx, "failed to classify recording", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "unable to classify audio"})
		return
	}

	latency := time.Since(started).Seconds() * 1000
	logger.InfoContext(ctx, "classification complete",
		slog.String("socketID", socket.ID()),
		slog.String("prediction", result.Prediction),
		slog.Float64("confidence", result.Confidence),
		slog.Float64("latencyMs", latency),
		slog.Bool("cached", cached),
	)

	socket.Emit("classificationResult", roundedSummary(result, latency, cached))
}
