package directory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

type file struct {
	Holders []*entity.Holder `yaml:"holders"`
	Users   []*entity.User   `yaml:"users"`
}

// Directory is a read-only holder and user registry loaded at startup.
type Directory struct {
	holders map[string]*entity.Holder
	users   map[string]*entity.User
	byEmail map[string]*entity.User
}

// LoadYAML reads a directory file with top-level holders and users lists.
func LoadYAML(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Directory, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse directory file: %w", err)
	}
	return New(f.Holders, f.Users)
}

// New validates holders and users. Main Distribution is added when absent.
func New(holders []*entity.Holder, users []*entity.User) (*Directory, error) {
	d := &Directory{
		holders: make(map[string]*entity.Holder),
		users:   make(map[string]*entity.User),
		byEmail: make(map[string]*entity.User),
	}

	d.holders[entity.MainDistribution] = &entity.Holder{
		Name: entity.MainDistribution,
		Tier: entity.LocationMainDistribution,
	}

	for _, h := range holders {
		if h.Name == "" {
			return nil, fmt.Errorf("holder without name")
		}
		if !h.Tier.Valid() || h.Tier == entity.LocationInTransit {
			return nil, fmt.Errorf("holder %q has invalid tier %q", h.Name, h.Tier)
		}
		if h.Name == entity.MainDistribution && h.Tier != entity.LocationMainDistribution {
			return nil, fmt.Errorf("%q must have tier %q", entity.MainDistribution, entity.LocationMainDistribution)
		}
		c := *h
		d.holders[h.Name] = &c
	}

	for _, h := range d.holders {
		if h.Parent == "" {
			continue
		}
		if _, ok := d.holders[h.Parent]; !ok {
			return nil, fmt.Errorf("holder %q references unknown parent %q", h.Name, h.Parent)
		}
	}

	for _, u := range users {
		if u.ID == "" || u.Email == "" {
			return nil, fmt.Errorf("user entries need id and email")
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("user %q has invalid role %q", u.ID, u.Role)
		}
		c := *u
		if c.Holder == "" {
			c.Holder = entity.MainDistribution
		}
		if _, ok := d.holders[c.Holder]; !ok {
			return nil, fmt.Errorf("user %q references unknown holder %q", u.ID, c.Holder)
		}
		email := strings.ToLower(c.Email)
		if _, dup := d.byEmail[email]; dup {
			return nil, fmt.Errorf("duplicate user email %q", c.Email)
		}
		d.users[c.ID] = &c
		d.byEmail[email] = &c
	}

	return d, nil
}

func (d *Directory) Holder(name string) (*entity.Holder, error) {
	h, ok := d.holders[name]
	if !ok {
		return nil, errors.NotFound("Holder", nil)
	}
	c := *h
	return &c, nil
}

func (d *Directory) Holders() []*entity.Holder {
	out := make([]*entity.Holder, 0, len(d.holders))
	for _, h := range d.holders {
		c := *h
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *Directory) UserByEmail(email string) (*entity.User, error) {
	u, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	c := *u
	return &c, nil
}

func (d *Directory) UserByID(id string) (*entity.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	c := *u
	return &c, nil
}

var _ repository.Directory = (*Directory)(nil)

// Users returns every directory user ordered by id.
func (d *Directory) Users() []*entity.User {
	out := make([]*entity.User, 0, len(d.users))
	for _, u := range d.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
