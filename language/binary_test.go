package language

import "testing"

func Test_IsBinaryContent_TextFile(t *testing.T) {
	content := []byte("# Shopping\n\n- milk\n- bread\n")
	if IsBinaryContent(content) {
		t.Error("expected text content to not be detected as binary")
	}
}

func Test_IsBinaryContent_BinaryFile(t *testing.T) {
	content := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00} // PNG header with null byte
	if !IsBinaryContent(content) {
		t.Error("expected binary content to be detected as binary")
	}
}

func Test_IsBinaryContent_EmptyFile(t *testing.T) {
	if IsBinaryContent([]byte{}) {
		t.Error("expected empty content to not be detected as binary")
	}
}

func Test_IsBinaryContent_NullPastSniffWindow(t *testing.T) {
	content := make([]byte, 1024)
	for i := range content {
		content[i] = 'a'
	}
	content[900] = 0x00
	if IsBinaryContent(content) {
		t.Error("expected null byte beyond the sniff window to be ignored")
	}
}

func Test_IsText_InvalidUTF8(t *testing.T) {
	if IsText([]byte{'a', 0xff, 0xfe, 'b'}) {
		t.Error("expected invalid UTF-8 to not be text")
	}
	if !IsText([]byte("naïve café")) {
		t.Error("expected valid UTF-8 to be text")
	}
}
