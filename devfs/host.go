// Package devfs emulates the parts of an operating system a character device
// driver registers with: the device-number authority, the character device
// table, the device class tree and the /dev node.
//
// Classes and nodes are published on a go-billy filesystem (in-memory by
// default) so a generic file client can find the device by path and open it
// with OpenNode:
//
//	/proc/devices                       allocated majors and their names
//	/sys/class/<class>/<device>/dev     "major:minor"
//	/dev/<device>                       the device node
//
// All Host methods are safe for concurrent use.
package devfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// Well-known locations on the host filesystem.
const (
	DevDir      = "/dev"
	ClassDir    = "/sys/class"
	ProcDevices = "/proc/devices"
)

// Step names one registration step. It is used for fault injection and in
// error messages.
type Step string

const (
	StepAllocRegion Step = "alloc_region"
	StepAddCdev     Step = "add_cdev"
	StepCreateClass Step = "create_class"
	StepCreateNode  Step = "create_node"
)

var (
	// ErrNoDevice is returned by OpenNode when the node exists but no
	// character device is bound to its number.
	ErrNoDevice = errors.New("no such device or address")

	// ErrBusy is returned when a number, class or node is already registered.
	ErrBusy = errors.New("device or resource busy")

	// ErrNotRegistered is returned when releasing something that was never registered.
	ErrNotRegistered = errors.New("not registered")
)

type region struct {
	name  string
	count int
}

type node struct {
	class string
	name  string
	path  string
}

// Host is an emulated device host.
type Host struct {
	fs     billy.Filesystem
	logger *slog.Logger

	// mu protects every field below
	mu        sync.Mutex
	nextMajor uint32
	regions   map[uint32]region
	cdevs     map[Number]OpenFunc
	classes   map[string]struct{}
	nodes     map[Number]node
	faults    map[Step]error
}

// NewHost creates a host with empty device tables.
//
// Example usage:
//
//	host := devfs.NewHost(devfs.WithLogger(slog.Default()))
//	f, err := host.OpenNode("/dev/pcd")
func NewHost(opts ...Option) *Host {
	options := defaultOptions()
	applyOptions(options, opts)

	fsys := options.fs
	if fsys == nil {
		fsys = memfs.New()
	}

	return &Host{
		fs:        fsys,
		logger:    options.logger,
		nextMajor: options.firstMajor,
		regions:   make(map[uint32]region),
		cdevs:     make(map[Number]OpenFunc),
		classes:   make(map[string]struct{}),
		nodes:     make(map[Number]node),
		faults:    make(map[Step]error),
	}
}

// Filesystem returns the filesystem nodes and classes are published on.
//
//nolint:ireturn // callers inspect the published tree through the billy API.
func (h *Host) Filesystem() billy.Filesystem {
	return h.fs
}

// FailOn makes the next call of step fail with err. A nil err clears the fault.
func (h *Host) FailOn(step Step, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.faults, step)
		return
	}
	h.faults[step] = err
}

// fault consumes an injected fault for step. Callers must hold mu.
func (h *Host) fault(step Step) error {
	err, ok := h.faults[step]
	if !ok {
		return nil
	}
	delete(h.faults, step)
	return err
}

// AllocRegion reserves count minor numbers under a newly allocated major.
func (h *Host) AllocRegion(name string, count int) (Number, error) {
	if name == "" {
		return Number{}, fmt.Errorf("devfs: alloc region: name cannot be empty")
	}
	if count < 1 {
		return Number{}, fmt.Errorf("devfs: alloc region %q: count must be positive, got %d", name, count)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fault(StepAllocRegion); err != nil {
		return Number{}, fmt.Errorf("devfs: alloc region %q: %w", name, err)
	}

	major := h.nextMajor
	h.nextMajor++
	h.regions[major] = region{name: name, count: count}

	if err := h.writeProcDevices(); err != nil {
		delete(h.regions, major)
		return Number{}, err
	}

	n := Number{Major: major, Minor: 0}
	h.log("device number allocated", "name", name, "number", n.String())
	return n, nil
}

// UnregisterRegion releases numbers reserved by AllocRegion.
func (h *Host) UnregisterRegion(n Number, count int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.regions[n.Major]
	if !ok || r.count != count {
		return fmt.Errorf("devfs: unregister region %s: %w", n, ErrNotRegistered)
	}
	delete(h.regions, n.Major)

	if err := h.writeProcDevices(); err != nil {
		return err
	}
	h.log("device number unregistered", "name", r.name, "number", n.String())
	return nil
}

// AddCdev binds open as the dispatch for n. The number must have been
// allocated and count must fit within its region.
func (h *Host) AddCdev(n Number, count int, open OpenFunc) error {
	if open == nil {
		return fmt.Errorf("devfs: add cdev %s: open cannot be nil", n)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fault(StepAddCdev); err != nil {
		return fmt.Errorf("devfs: add cdev %s: %w", n, err)
	}
	r, ok := h.regions[n.Major]
	if !ok || int(n.Minor)+count > r.count {
		return fmt.Errorf("devfs: add cdev %s: %w", n, ErrNotRegistered)
	}
	if _, exists := h.cdevs[n]; exists {
		return fmt.Errorf("devfs: add cdev %s: %w", n, ErrBusy)
	}

	h.cdevs[n] = open
	h.log("cdev added", "number", n.String())
	return nil
}

// DelCdev removes the dispatch bound to n. Handles already open stay valid.
func (h *Host) DelCdev(n Number) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.cdevs[n]; !ok {
		return fmt.Errorf("devfs: del cdev %s: %w", n, ErrNotRegistered)
	}
	delete(h.cdevs, n)
	h.log("cdev deleted", "number", n.String())
	return nil
}

// CreateClass creates the class directory under ClassDir.
func (h *Host) CreateClass(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return fmt.Errorf("devfs: create class: invalid name %q", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fault(StepCreateClass); err != nil {
		return fmt.Errorf("devfs: create class %q: %w", name, err)
	}
	if _, exists := h.classes[name]; exists {
		return fmt.Errorf("devfs: create class %q: %w", name, ErrBusy)
	}
	if err := h.fs.MkdirAll(filepath.Join(ClassDir, name), 0o755); err != nil {
		return fmt.Errorf("devfs: create class %q: %w", name, err)
	}

	h.classes[name] = struct{}{}
	h.log("device class created", "class", name)
	return nil
}

// DestroyClass removes the class directory and everything below it.
func (h *Host) DestroyClass(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.classes[name]; !ok {
		return fmt.Errorf("devfs: destroy class %q: %w", name, ErrNotRegistered)
	}
	if err := util.RemoveAll(h.fs, filepath.Join(ClassDir, name)); err != nil {
		return fmt.Errorf("devfs: destroy class %q: %w", name, err)
	}

	delete(h.classes, name)
	h.log("device class destroyed", "class", name)
	return nil
}

// CreateNode publishes n as DevDir/<name> and records it under the class.
// It returns the node path.
func (h *Host) CreateNode(class string, n Number, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("devfs: create node: invalid name %q", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fault(StepCreateNode); err != nil {
		return "", fmt.Errorf("devfs: create node %q: %w", name, err)
	}
	if _, ok := h.classes[class]; !ok {
		return "", fmt.Errorf("devfs: create node %q: class %q: %w", name, class, ErrNotRegistered)
	}
	if _, exists := h.nodes[n]; exists {
		return "", fmt.Errorf("devfs: create node %q: number %s: %w", name, n, ErrBusy)
	}

	path := filepath.Join(DevDir, name)
	if _, err := h.fs.Stat(path); err == nil {
		return "", fmt.Errorf("devfs: create node %q: %w", path, ErrBusy)
	}

	sysDir := filepath.Join(ClassDir, class, name)
	if err := h.publishNode(sysDir, path, n); err != nil {
		_ = util.RemoveAll(h.fs, sysDir)
		return "", fmt.Errorf("devfs: create node %q: %w", path, err)
	}

	h.nodes[n] = node{class: class, name: name, path: path}
	h.log("device node created", "path", path, "number", n.String())
	return path, nil
}

// publishNode writes the class entry under sysDir and the node at path.
// Callers must hold mu and remove sysDir on error.
func (h *Host) publishNode(sysDir, path string, n Number) error {
	if err := h.fs.MkdirAll(sysDir, 0o755); err != nil {
		return err
	}
	if err := util.WriteFile(h.fs, filepath.Join(sysDir, "dev"), []byte(n.String()+"\n"), 0o444); err != nil {
		return err
	}
	if err := h.fs.MkdirAll(DevDir, 0o755); err != nil {
		return err
	}
	return util.WriteFile(h.fs, path, []byte("c "+n.String()+"\n"), 0o666)
}

// DestroyNode removes the node created for n.
func (h *Host) DestroyNode(class string, n Number) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	nd, ok := h.nodes[n]
	if !ok || nd.class != class {
		return fmt.Errorf("devfs: destroy node %s: %w", n, ErrNotRegistered)
	}

	var errs []error
	if err := h.fs.Remove(nd.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := util.RemoveAll(h.fs, filepath.Join(ClassDir, class, nd.name)); err != nil {
		errs = append(errs, err)
	}
	delete(h.nodes, n)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("devfs: destroy node %q: %w", nd.path, err)
	}
	h.log("device node destroyed", "path", nd.path)
	return nil
}

// OpenNode opens the device published at path.
//
// It fails with fs.ErrNotExist when no node exists at path and with
// ErrNoDevice when the node's number has no character device bound.
//
//nolint:ireturn // the handle type depends on the bound device.
func (h *Host) OpenNode(path string) (File, error) {
	path = filepath.Clean(path)

	h.mu.Lock()
	var (
		num   Number
		found bool
	)
	for n, nd := range h.nodes {
		if nd.path == path {
			num, found = n, true
			break
		}
	}
	open := h.cdevs[num]
	h.mu.Unlock()

	if !found {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if _, err := h.fs.Stat(path); err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if open == nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: ErrNoDevice}
	}

	f, err := open()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

// NumberOf reads the number recorded for a device under its class directory.
func (h *Host) NumberOf(class, name string) (Number, error) {
	data, err := util.ReadFile(h.fs, filepath.Join(ClassDir, class, name, "dev"))
	if err != nil {
		return Number{}, fmt.Errorf("devfs: number of %s/%s: %w", class, name, err)
	}
	return ParseNumber(string(data))
}

// writeProcDevices rewrites ProcDevices from the region table. Callers must hold mu.
func (h *Host) writeProcDevices() error {
	majors := make([]uint32, 0, len(h.regions))
	for major := range h.regions {
		majors = append(majors, major)
	}
	sort.Slice(majors, func(i, j int) bool { return majors[i] < majors[j] })

	var b strings.Builder
	b.WriteString("Character devices:\n")
	for _, major := range majors {
		fmt.Fprintf(&b, "%3d %s\n", major, h.regions[major].name)
	}

	if err := h.fs.MkdirAll(filepath.Dir(ProcDevices), 0o755); err != nil {
		return fmt.Errorf("devfs: write %s: %w", ProcDevices, err)
	}
	if err := util.WriteFile(h.fs, ProcDevices, []byte(b.String()), 0o444); err != nil {
		return fmt.Errorf("devfs: write %s: %w", ProcDevices, err)
	}
	return nil
}

func (h *Host) log(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}
