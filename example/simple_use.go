package main

import (
	"context"
	"fmt"
	"math"

	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/audio2midi"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/leandrodaf/audio2midi/sdk/midi"
)

const (
	sampleRate = 44100
	hopSize    = 256
	frameSize  = 2048
)

func main() {
	log := logger.NewZapLogger()

	converter, err := audio2midi.NewConverter(
		contracts.WithConverterLogger(log),
		contracts.WithConverterLogLevel(contracts.InfoLevel),
		contracts.WithSampleRate(sampleRate),
		contracts.WithHopSize(hopSize),
		contracts.WithFrequencyRange(100, 1200),
	)
	if err != nil {
		log.Error("Failed to initialize converter", log.Field().Error("error", err))
		return
	}
	transcriber := audio2midi.NewTranscriber(converter.FrameStep())

	// Half a second of A4 followed by a quarter second of silence.
	signal := make([]float32, sampleRate*3/4)
	for i := 0; i < sampleRate/2; i++ {
		signal[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}

	frame := make([]float32, frameSize)
	for start := 0; start+hopSize <= len(signal); start += hopSize {
		n := copy(frame, signal[start:])
		clear(frame[n:])

		result, err := converter.Process(frame)
		if err != nil {
			log.Error("Failed to process frame", log.Field().Error("error", err))
			return
		}
		for _, event := range transcriber.Add(result) {
			log.Info("Note event",
				log.Field().String("type", string(event.Type)),
				log.Field().Int("note", event.Note),
				log.Field().Float64("time", event.Time),
				log.Field().Float64("detected", event.Detected),
			)
		}
	}

	for _, note := range transcriber.Close() {
		fmt.Printf("note %d from %.3fs to %.3fs\n", note.Note, note.Onset, note.Offset)
	}

	client, err := midi.NewMIDIClient(contracts.WithLogger(log))
	if err != nil {
		log.Warn("No MIDI output available", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Warn("No MIDI output devices found", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	if err = client.SelectDevice(0); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	events := make([]contracts.MIDI, 0, len(transcriber.Events()))
	for _, event := range transcriber.Events() {
		events = append(events, event.MIDI(0, 100))
	}
	if err := midi.Play(context.Background(), client, events); err != nil {
		log.Error("Failed to play notes", log.Field().Error("error", err))
	}
}
