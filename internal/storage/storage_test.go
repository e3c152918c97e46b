package storage

import (
	"strings"
	"testing"
)

func TestImageKey(t *testing.T) {
	key := imageKey("u1", "image/jpeg")
	if !strings.HasPrefix(key, "scans/u1/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("got %q", key)
	}
	key = imageKey("u1", "image/png")
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("got %q", key)
	}
	if imageKey("u1", "image/jpeg") == imageKey("u1", "image/jpeg") {
		t.Error("keys should be unique per upload")
	}
}

func TestAudioKey(t *testing.T) {
	key := audioKey("u2", "Nota.MP3")
	if !strings.HasPrefix(key, "audios/u2/") || !strings.HasSuffix(key, ".mp3") {
		t.Errorf("got %q", key)
	}
	if strings.Contains(audioKey("u2", "voz.wav"), "voz") {
		t.Error("original filename must not leak into the key")
	}
}

func TestPublicURL(t *testing.T) {
	u := &Uploader{bucket: "survscan", publicBase: "https://files.example.com"}
	got := u.publicURL("scans/u1/abc.jpg")
	if got != "https://files.example.com/survscan/scans/u1/abc.jpg" {
		t.Errorf("got %q", got)
	}
}
