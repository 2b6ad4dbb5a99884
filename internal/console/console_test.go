package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/transferdesk/transferdesk/internal/admin"
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/fileview"
	"github.com/transferdesk/transferdesk/internal/logging"
	"github.com/transferdesk/transferdesk/internal/session"
	"github.com/transferdesk/transferdesk/pkg/client"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type fixture struct {
	console     *Console
	out         *bytes.Buffer
	copyCalls   int32
	folderCalls int32
	startCalls  int32
}

func newFixture(t *testing.T, role, input string) *fixture {
	t.Helper()
	fx := &fixture{out: &bytes.Buffer{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			writeJSON(w, 401, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, 200, map[string]any{
			"access_token": "opaque-token",
			"user":         map[string]any{"id": "u1", "username": req["username"], "role": role, "is_active": true},
		})
	})
	mux.HandleFunc("GET /api/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"path": "/", "total": 2, "data": []map[string]any{
			{"id": "s3_file:a.txt", "name": "a.txt", "type": "file", "size": 2048, "path": "/"},
			{"id": "s3_folder:docs/", "name": "docs", "type": "folder", "size": 0, "path": "/"},
		}})
	})
	mux.HandleFunc("POST /api/files/folder", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fx.folderCalls, 1)
		writeJSON(w, 409, map[string]string{"detail": "Folder already exists"})
	})
	mux.HandleFunc("POST /api/files/copy", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fx.copyCalls, 1)
		writeJSON(w, 200, map[string]any{"success": true, "copied_count": 1, "errors": []string{}})
	})
	mux.HandleFunc("GET /api/activity", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"data": []map[string]any{{
				"id": "log1", "user_id": "u1", "username": "alice", "action": "upload",
				"resource": "a.txt", "status": "success", "timestamp": "2026-10-01T10:00:00",
			}},
			"pagination": map[string]any{"page": 1, "limit": 20, "total": 1, "totalPages": 1},
		})
	})
	mux.HandleFunc("GET /api/sftp/connections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"connections": []map[string]any{
			{"id": "c1", "host": "files.example.com", "port": 22, "username": "alice", "status": "connected"},
		}})
	})
	mux.HandleFunc("POST /api/sftp/server/start", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fx.startCalls, 1)
		writeJSON(w, 200, map[string]string{"message": "started"})
	})
	mux.HandleFunc("POST /api/files/upload", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, 400, map[string]string{"detail": err.Error()})
			return
		}
		n, _ := io.Copy(io.Discard, f)
		f.Close()
		if strings.HasPrefix(hdr.Filename, "bad") {
			writeJSON(w, 500, map[string]string{"detail": "storage rejected " + hdr.Filename})
			return
		}
		writeJSON(w, 200, map[string]any{"id": "s3_file:" + hdr.Filename, "name": hdr.Filename, "type": "file", "size": n, "path": "/"})
	})
	mux.HandleFunc("GET /api/files/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(strings.TrimPrefix(r.PathValue("id"), "s3_folder:"), "/")
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.zip"`)
		io.WriteString(w, "PK\x03\x04")
	})
	mux.HandleFunc("PUT /api/files/rename-by-path", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, 200, map[string]any{
			"success": true, "old_path": q.Get("old_path"), "new_path": "/docs/" + q.Get("new_name"), "message": "Renamed",
		})
	})
	mux.HandleFunc("PUT /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["newPassword"] != "" && req["currentPassword"] != "secret" {
			writeJSON(w, 400, map[string]string{"detail": "Current password is incorrect"})
			return
		}
		writeJSON(w, 200, map[string]any{"id": "u1", "username": "alice", "email": req["email"], "role": role, "is_active": true})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c := client.New(client.Config{BaseURL: ts.URL + "/api"})
	bus := events.NewBroadcaster()
	sess := session.NewStore(c, &session.MemoryTokenStore{}, bus, session.Options{})
	c.OnUnauthorized(sess.Expire)
	fx.console = New(Deps{
		Session:      sess,
		Files:        fileview.NewStore(c, bus, fileview.Options{}),
		Users:        admin.NewUsers(c, bus, admin.Options{}),
		Activity:     admin.NewActivity(c, bus, admin.Options{}),
		Dashboard:    admin.NewDashboard(c, bus, admin.Options{}),
		SFTP:         admin.NewSFTP(c, bus, admin.Options{}),
		Bus:          bus,
		In:           strings.NewReader(input),
		Out:          fx.out,
		ReadPassword: func(string) (string, error) { return "secret", nil },
		DownloadDir:  t.TempDir(),
	})
	t.Cleanup(fx.console.Close)
	return fx
}

func (fx *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	fx.out.Reset()
	fx.console.Exec(context.Background(), line)
	return fx.out.String()
}

func TestGuardRedirectsToLogin(t *testing.T) {
	fx := newFixture(t, "user", "alice\n")
	out := fx.exec(t, "ls")
	for _, want := range []string{"Please log in to continue.", "Username: ", "✓ Welcome, alice", "a.txt", "docs/"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "docs/") > strings.Index(out, "a.txt") {
		t.Errorf("folders should be listed first:\n%s", out)
	}
}

func TestFailedLoginStops(t *testing.T) {
	fx := newFixture(t, "user", "alice\n")
	fx.console.ReadPassword = func(string) (string, error) { return "wrong", nil }
	out := fx.exec(t, "ls")
	if !strings.Contains(out, "✗ Incorrect username or password") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "a.txt") || strings.Contains(out, "Error:") {
		t.Errorf("command ran or error repeated:\n%s", out)
	}
}

func TestPasteWithEmptyClipboard(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	out := fx.exec(t, "paste")
	if !strings.Contains(out, "i Nothing to paste") || strings.Contains(out, "Error:") {
		t.Errorf("output = %q", out)
	}
	if n := atomic.LoadInt32(&fx.copyCalls); n != 0 {
		t.Errorf("copy calls = %d", n)
	}
}

func TestCopyPasteFlow(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	fx.exec(t, "select a.txt")
	if out := fx.exec(t, "copy"); !strings.Contains(out, "1 item(s) copied") {
		t.Fatalf("copy output = %q", out)
	}
	out := fx.exec(t, "paste docs")
	if !strings.Contains(out, "✓ Copied 1 item(s) to /docs") {
		t.Errorf("paste output = %q", out)
	}
	if n := atomic.LoadInt32(&fx.copyCalls); n != 1 {
		t.Errorf("copy calls = %d", n)
	}
	if out := fx.exec(t, "clip"); !strings.Contains(out, "Clipboard is empty.") {
		t.Errorf("clip output = %q", out)
	}
}

func TestErrorReportedOnce(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	out := fx.exec(t, "mkdir docs")
	if strings.Count(out, "Folder already exists") != 1 || strings.Contains(out, "Error:") {
		t.Errorf("output = %q", out)
	}
	if out := fx.exec(t, "mkdir a/b"); !strings.Contains(out, "Error:") {
		t.Errorf("local validation error not printed: %q", out)
	}
	if n := atomic.LoadInt32(&fx.folderCalls); n != 1 {
		t.Errorf("folder calls = %d, want 1", n)
	}
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	out := fx.exec(t, "users list")
	if !strings.Contains(out, "Error: admin access required") {
		t.Errorf("output = %q", out)
	}
}

func TestUserCommandsForPlainUsers(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")

	if out := fx.exec(t, "activity list"); strings.Contains(out, "Error:") || !strings.Contains(out, "a.txt") {
		t.Errorf("activity list output = %q", out)
	}
	if out := fx.exec(t, "sftp connections"); strings.Contains(out, "Error:") || !strings.Contains(out, "files.example.com") {
		t.Errorf("sftp connections output = %q", out)
	}
	if out := fx.exec(t, "sftp start"); !strings.Contains(out, "Error: admin access required") {
		t.Errorf("sftp start output = %q", out)
	}
	if n := atomic.LoadInt32(&fx.startCalls); n != 0 {
		t.Errorf("start calls = %d, want 0", n)
	}
}

func TestUnknownCommand(t *testing.T) {
	fx := newFixture(t, "user", "")
	if out := fx.exec(t, "frobnicate"); !strings.Contains(out, `unknown command "frobnicate"`) {
		t.Errorf("output = %q", out)
	}
}

func TestRunUntilExit(t *testing.T) {
	fx := newFixture(t, "user", "help\nexit\nls\n")
	if err := fx.console.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := fx.out.String()
	if !strings.Contains(out, "Leave the console") {
		t.Errorf("help not printed:\n%s", out)
	}
	if strings.Contains(out, "Please log in") {
		t.Errorf("commands after exit were run:\n%s", out)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"ls -l", []string{"ls", "-l"}},
		{`rename "old name.txt" 'new name.txt'`, []string{"rename", "old name.txt", "new name.txt"}},
		{`mkdir a\ b`, []string{"mkdir", "a b"}},
		{`share x ""`, []string{"share", "x", ""}},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.in)
		if err != nil {
			t.Errorf("splitArgs(%q): %v", tt.in, err)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := splitArgs(`say "unterminated`); err == nil {
		t.Error("unterminated quote accepted")
	}
}

func TestBatchModeDoesNotPrompt(t *testing.T) {
	fx := newFixture(t, "user", "alice\n")
	fx.console.Batch = true
	fx.out.Reset()
	err := fx.console.ExecArgs(context.Background(), []string{"ls"})
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("err = %v, want not logged in", err)
	}
	out := fx.out.String()
	if strings.Contains(out, "Username: ") || strings.Contains(out, "a.txt") {
		t.Errorf("batch command prompted or ran:\n%s", out)
	}
}

func TestOpenThenExecArgs(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.console.Batch = true
	ctx := context.Background()
	if err := fx.console.ExecArgs(ctx, []string{"login", "alice"}); err != nil {
		t.Fatal(err)
	}
	fx.out.Reset()
	if err := fx.console.Open(ctx, "/"); err != nil {
		t.Fatal(err)
	}
	if fx.out.Len() != 0 {
		t.Errorf("open printed %q", fx.out.String())
	}
	if err := fx.console.ExecArgs(ctx, []string{"cp", "a.txt", "docs"}); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&fx.copyCalls); n != 1 {
		t.Errorf("copy calls = %d, want 1", n)
	}
}

func TestLogLevel(t *testing.T) {
	fx := newFixture(t, "user", "")
	defer logging.SetLevel("warn")
	if out := fx.exec(t, "loglevel debug"); !strings.Contains(out, "Log level: debug") {
		t.Errorf("output = %q", out)
	}
	if out := fx.exec(t, "loglevel loud"); !strings.Contains(out, `unknown log level "loud"`) {
		t.Errorf("output = %q", out)
	}
}

func TestUploadReportsEveryFile(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")

	dir := t.TempDir()
	files := map[string]int{"bad1.txt": 10, "big.bin": 8 << 20, "bad3.txt": 10}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(dir, name), bytes.Repeat([]byte("x"), size), 0644); err != nil {
			t.Fatal(err)
		}
	}

	out := fx.exec(t, "upload "+filepath.Join(dir, "bad1.txt")+" "+filepath.Join(dir, "big.bin")+" "+filepath.Join(dir, "bad3.txt"))
	for _, want := range []string{
		"✗ Failed to upload bad1.txt: storage rejected bad1.txt",
		"✓ Uploaded big.bin",
		"✗ Failed to upload bad3.txt: storage rejected bad3.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error:") {
		t.Errorf("failures printed twice:\n%s", out)
	}
}

func TestReported(t *testing.T) {
	bad1 := errors.New("storage rejected bad1.txt")
	bad3 := errors.New("storage rejected bad3.txt")
	shown := []string{"Failed to upload bad1.txt: storage rejected bad1.txt"}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"single shown", bad1, true},
		{"single not shown", bad3, false},
		{"wrapped shown", fmt.Errorf("bad1.txt: %w", bad1), true},
		{"joined all shown", errors.Join(bad1, bad1), true},
		{"joined one missing", errors.Join(bad1, bad3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reported(tt.err, shown); got != tt.want {
				t.Errorf("reported = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDownloadFolderAsZip(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	out := fx.exec(t, "download docs")
	dest := filepath.Join(fx.console.DownloadDir, "docs.zip")
	if !strings.Contains(out, "Saved "+dest) {
		t.Fatalf("output:\n%s", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil || !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("archive = %q, %v", data, err)
	}
}

func TestRenameByPath(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")
	out := fx.exec(t, "rename /docs/c.txt d.txt")
	if !strings.Contains(out, "Renamed /docs/c.txt to /docs/d.txt") || strings.Contains(out, "Error:") {
		t.Errorf("output:\n%s", out)
	}
}

func TestProfileAndPasswd(t *testing.T) {
	fx := newFixture(t, "user", "")
	fx.exec(t, "login alice")

	out := fx.exec(t, "profile -email alice@example.com")
	if !strings.Contains(out, "✓ Profile updated") {
		t.Fatalf("profile output:\n%s", out)
	}
	if got := fx.console.Session.User().Email; got != "alice@example.com" {
		t.Errorf("email = %q", got)
	}
	if out := fx.exec(t, "profile -email nope"); !strings.Contains(out, "invalid email") {
		t.Errorf("bad email output:\n%s", out)
	}

	answers := []string{"secret", "newpass1", "newpass2"}
	fx.console.ReadPassword = func(string) (string, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	if out := fx.exec(t, "passwd"); !strings.Contains(out, "passwords do not match") {
		t.Errorf("mismatch output:\n%s", out)
	}

	answers = []string{"wrong", "newpass1", "newpass1"}
	out = fx.exec(t, "passwd")
	if !strings.Contains(out, "Current password is incorrect") || strings.Count(out, "Current password is incorrect") != 1 {
		t.Errorf("wrong password output:\n%s", out)
	}

	answers = []string{"secret", "newpass1", "newpass1"}
	if out := fx.exec(t, "passwd"); !strings.Contains(out, "✓ Profile updated") {
		t.Errorf("passwd output:\n%s", out)
	}
}
