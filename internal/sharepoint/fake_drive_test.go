package sharepoint

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/pkg/graph"
)

const (
	testDrive  = "drive-1"
	testRootID = "root-id"
	webBase    = "https://contoso.sharepoint.com/sites/erp/Shared%20Documents"
)

type node struct {
	id       string
	name     string
	parent   string
	folder   bool
	content  []byte
	children []string
}

// fakeDrive is an in-memory SharePoint drive behind a Graph-shaped HTTP API.
type fakeDrive struct {
	*httptest.Server

	mu     sync.Mutex
	nodes  map[string]*node
	nextID int
	calls  []string

	// failures injected by tests
	rootStatus   int
	listStatus   int
	createStatus int
	putStatus    map[string]int
	itemStatus   int
	tokenStatus  int
}

func newFakeDrive(t *testing.T) *fakeDrive {
	t.Helper()
	fd := &fakeDrive{
		nodes:     map[string]*node{testRootID: {id: testRootID, folder: true}},
		putStatus: map[string]int{},
	}
	fd.Server = httptest.NewServer(http.HandlerFunc(fd.serve))
	t.Cleanup(fd.Close)
	return fd
}

// settings returns settings pointing at this fake drive.
func (fd *fakeDrive) settings() *config.Settings {
	s := config.Default()
	s.Graph.TenantID = "tenant"
	s.Graph.ClientID = "client"
	s.Graph.ClientSecret = "secret"
	s.Graph.APIURL = fd.URL + "/v1.0"
	s.Graph.AuthorityHost = fd.URL
	s.SharePoint.DriveID = testDrive
	return s
}

func (fd *fakeDrive) client(s *config.Settings) *graph.Client {
	return graph.NewClient(s.Credentials(), s.Graph.APIURL, s.Timeout(), nil)
}

// mkdir creates a folder path below the root and returns the leaf ID.
func (fd *fakeDrive) mkdir(path ...string) string {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	parent := testRootID
	for _, name := range path {
		if id := fd.childLocked(parent, name); id != "" {
			parent = id
			continue
		}
		parent = fd.addLocked(parent, name, true, nil).id
	}
	return parent
}

// addFile places a plain file below parent.
func (fd *fakeDrive) addFile(parent, name string) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.addLocked(parent, name, false, []byte("x"))
}

func (fd *fakeDrive) addLocked(parent, name string, folder bool, content []byte) *node {
	fd.nextID++
	n := &node{id: fmt.Sprintf("item-%d", fd.nextID), name: name, parent: parent, folder: folder, content: content}
	fd.nodes[n.id] = n
	fd.nodes[parent].children = append(fd.nodes[parent].children, n.id)
	return n
}

func (fd *fakeDrive) childLocked(parent, name string) string {
	for _, id := range fd.nodes[parent].children {
		if fd.nodes[id].name == name {
			return id
		}
	}
	return ""
}

func (fd *fakeDrive) pathLocked(id string) string {
	var parts []string
	for id != testRootID && id != "" {
		n := fd.nodes[id]
		parts = append([]string{n.name}, parts...)
		id = n.parent
	}
	return strings.Join(parts, "/")
}

// folderPaths lists every folder path, for asserting the created tree.
func (fd *fakeDrive) folderPaths() []string {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	var out []string
	for id, n := range fd.nodes {
		if n.folder && id != testRootID {
			out = append(out, fd.pathLocked(id))
		}
	}
	return out
}

// fileAt returns the content stored at path, if any.
func (fd *fakeDrive) fileAt(path string) ([]byte, bool) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for id, n := range fd.nodes {
		if !n.folder && fd.pathLocked(id) == path {
			return n.content, true
		}
	}
	return nil, false
}

// callsOf returns the recorded calls starting with prefix, such as "POST children".
func (fd *fakeDrive) callsOf(prefix string) []string {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	var out []string
	for _, c := range fd.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (fd *fakeDrive) resetCalls() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.calls = nil
}

func (fd *fakeDrive) item(n *node) map[string]any {
	out := map[string]any{"id": n.id, "name": n.name, "webUrl": webBase + "/" + strings.ReplaceAll(fd.pathLocked(n.id), " ", "%20")}
	if n.folder {
		out["folder"] = map[string]any{"childCount": len(n.children)}
	} else {
		out["file"] = map[string]any{"mimeType": "application/octet-stream"}
	}
	return out
}

func (fd *fakeDrive) serve(w http.ResponseWriter, r *http.Request) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token") {
		fd.calls = append(fd.calls, "POST token")
		if fd.tokenStatus != 0 {
			respond(w, fd.tokenStatus, map[string]any{"error": "invalid_client"})
			return
		}
		respond(w, http.StatusOK, map[string]any{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600})
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/v1.0/drives/"+testDrive+"/")
	if !ok {
		notFound(w)
		return
	}

	switch {
	case r.Method == http.MethodGet && rest == "root":
		fd.calls = append(fd.calls, "GET root")
		if fd.rootStatus != 0 {
			respond(w, fd.rootStatus, errorBody("generalException"))
			return
		}
		respond(w, http.StatusOK, fd.item(fd.nodes[testRootID]))

	case r.Method == http.MethodGet && strings.HasPrefix(rest, "root:/"):
		path := strings.TrimPrefix(rest, "root:/")
		fd.calls = append(fd.calls, "GET path "+path)
		if fd.rootStatus != 0 {
			respond(w, fd.rootStatus, errorBody("generalException"))
			return
		}
		id := testRootID
		for _, seg := range strings.Split(path, "/") {
			if id = fd.childLocked(id, seg); id == "" {
				notFound(w)
				return
			}
		}
		respond(w, http.StatusOK, fd.item(fd.nodes[id]))

	case strings.HasPrefix(rest, "items/") && strings.HasSuffix(rest, "/children"):
		id := fd.resolveID(strings.TrimSuffix(strings.TrimPrefix(rest, "items/"), "/children"))
		parent, exists := fd.nodes[id]
		if !exists {
			notFound(w)
			return
		}
		if r.Method == http.MethodGet {
			fd.calls = append(fd.calls, "GET children "+fd.pathLocked(id))
			if fd.listStatus != 0 {
				respond(w, fd.listStatus, errorBody("accessDenied"))
				return
			}
			values := []map[string]any{}
			for _, cid := range parent.children {
				values = append(values, fd.item(fd.nodes[cid]))
			}
			respond(w, http.StatusOK, map[string]any{"value": values})
			return
		}

		var body struct {
			Name     string `json:"name"`
			Conflict string `json:"@microsoft.graph.conflictBehavior"`
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		fd.calls = append(fd.calls, "POST children "+body.Name)
		if fd.createStatus != 0 {
			respond(w, fd.createStatus, errorBody("accessDenied"))
			return
		}
		name := body.Name
		for i := 1; fd.childLocked(id, name) != ""; i++ {
			if body.Conflict != "rename" {
				respond(w, http.StatusConflict, errorBody("nameAlreadyExists"))
				return
			}
			name = fmt.Sprintf("%s %d", body.Name, i)
		}
		respond(w, http.StatusCreated, fd.item(fd.addLocked(id, name, true, nil)))

	case r.Method == http.MethodPut && strings.HasPrefix(rest, "items/") && strings.HasSuffix(rest, ":/content"):
		target := strings.TrimSuffix(strings.TrimPrefix(rest, "items/"), ":/content")
		folderID, name, _ := strings.Cut(target, ":/")
		folderID = fd.resolveID(folderID)
		data, _ := io.ReadAll(r.Body)
		fd.calls = append(fd.calls, "PUT "+name)
		if status := fd.putStatus[name]; status != 0 {
			respond(w, status, errorBody("generalException"))
			return
		}
		if _, exists := fd.nodes[folderID]; !exists {
			notFound(w)
			return
		}
		if existing := fd.childLocked(folderID, name); existing != "" {
			fd.nodes[existing].content = data
			respond(w, http.StatusOK, fd.item(fd.nodes[existing]))
			return
		}
		respond(w, http.StatusCreated, fd.item(fd.addLocked(folderID, name, false, data)))

	case r.Method == http.MethodGet && strings.HasPrefix(rest, "items/"):
		id := fd.resolveID(strings.TrimPrefix(rest, "items/"))
		fd.calls = append(fd.calls, "GET item "+id)
		if fd.itemStatus != 0 {
			respond(w, fd.itemStatus, errorBody("generalException"))
			return
		}
		n, exists := fd.nodes[id]
		if !exists {
			notFound(w)
			return
		}
		respond(w, http.StatusOK, fd.item(n))

	default:
		notFound(w)
	}
}

func (fd *fakeDrive) resolveID(id string) string {
	if id == graph.RootItemID {
		return testRootID
	}
	return id
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorBody(code string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "message": code}}
}

func notFound(w http.ResponseWriter) {
	respond(w, http.StatusNotFound, errorBody("itemNotFound"))
}
