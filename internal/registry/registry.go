// Package registry holds the declared deployment roles (vhosts) and the
// host sources behind them.
package registry

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/errors"
)

// VHost is one named deployment target: a set of hosts sharing a layout on
// disk under VHostPath.
type VHost struct {
	Name      string
	Hosts     HostSource
	VHostPath string
	RepoName  string
	Worktree  string
	RunDir    string
	Owner     string
	Meteor    bool
}

// RepoPath is the bare repository the local checkout pushes to.
func (v VHost) RepoPath() string {
	return path.Join(v.VHostPath, v.RepoName)
}

// WorktreePath is the checked-out code directory.
func (v VHost) WorktreePath() string {
	return path.Join(v.VHostPath, v.Worktree)
}

// RunDirPath is where the unpacked bundle lives.
func (v VHost) RunDirPath() string {
	return path.Join(v.VHostPath, v.RunDir)
}

// ServiceName is the supervisor program that runs the app.
func (v VHost) ServiceName() string {
	return v.Name + "_meteor"
}

// BundleTarball is the scratch tarball mrt writes on the host.
func (v VHost) BundleTarball() string {
	return "/tmp/bundle_" + v.Name + ".tar.gz"
}

// Registry is an immutable name -> VHost map.
type Registry struct {
	vhosts map[string]VHost
}

// New builds a registry from vhosts. Duplicate names are rejected.
func New(vhosts ...VHost) (*Registry, error) {
	r := &Registry{vhosts: make(map[string]VHost, len(vhosts))}
	for _, v := range vhosts {
		if _, dup := r.vhosts[v.Name]; dup {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Role '%s' is declared twice", v.Name),
				"Each role name must be unique")
		}
		r.vhosts[v.Name] = v
	}
	return r, nil
}

// Names returns all role names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.vhosts))
	for name := range r.vhosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks up a role by name.
func (r *Registry) Get(name string) (VHost, bool) {
	v, ok := r.vhosts[name]
	return v, ok
}

// Len returns the number of declared roles.
func (r *Registry) Len() int {
	return len(r.vhosts)
}

// FromConfig converts a validated roles file into a Registry. baseDir is the
// directory holding the roles file; inventory commands run there.
func FromConfig(cfg *config.Config, baseDir string) (*Registry, error) {
	vhosts := make([]VHost, 0, len(cfg.VHosts))

	for _, name := range config.VHostNames(cfg) {
		vc := cfg.VHosts[name]

		v, err := vhostFromConfig(name, vc, baseDir)
		if err != nil {
			return nil, err
		}
		vhosts = append(vhosts, v)
	}

	return New(vhosts...)
}

func vhostFromConfig(name string, vc config.VHostConfig, baseDir string) (VHost, error) {
	v := VHost{
		Name:      name,
		VHostPath: strings.TrimSuffix(orDefault(config.ExpandRemote(vc.VHostPath, name), config.DefaultVHostRoot+name), "/"),
		RepoName:  orDefault(config.ExpandRemote(vc.RepoName, name), config.DefaultRepoName),
		Worktree:  orDefault(config.ExpandRemote(vc.Worktree, name), config.DefaultWorktree),
		RunDir:    orDefault(config.ExpandRemote(vc.RunDir, name), config.DefaultRunDir),
		Owner:     orDefault(vc.Owner, config.DefaultOwner),
		Meteor:    config.DefaultMeteor,
	}
	if vc.Meteor != nil {
		v.Meteor = *vc.Meteor
	}

	if vc.Inventory != "" {
		dir := baseDir
		if dir == "" {
			dir = "."
		}
		v.Hosts = Dynamic(InventoryProducer(vc.Inventory, filepath.Clean(dir)))
		return v, nil
	}

	entries, err := ParseHostList(vc.Hosts)
	if err != nil {
		return VHost{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Role '%s' has an invalid host list", name),
			"Hosts are address strings or {address, name} maps")
	}
	v.Hosts = Fixed(entries...)
	return v, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
