package treadle

import "testing"

func TestLogBlockDiffHandlesIdenticalContentWithoutPanic(t *testing.T) {
	logBlockDiff("irrelevant.rs", []byte("same\n"), []byte("same\n"))
}

func TestLogBlockDiffHandlesChangedContentWithoutPanic(t *testing.T) {
	logBlockDiff("irrelevant.rs", []byte("old\n"), []byte("new\n"))
}
