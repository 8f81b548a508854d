package provider

import (
	"errors"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// mockWriter is a simple in-memory MarketDataWriter.
type mockWriter struct {
	initializeErr  error
	writeErr       error
	finalizeErr    error
	outputPath     string
	writtenData    []types.MarketData
	closeCallCount int
}

func (m *mockWriter) Initialize() error {
	return m.initializeErr
}

func (m *mockWriter) Write(data types.MarketData) error {
	if m.writeErr != nil {
		return m.writeErr
	}

	m.writtenData = append(m.writtenData, data)

	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}

	return m.outputPath, nil
}

func (m *mockWriter) Close() error {
	m.closeCallCount++
	return nil
}

func (m *mockWriter) GetOutputPath() string {
	return m.outputPath
}

var errBoom = errors.New("boom")
