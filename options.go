package weecord

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"git.sr.ht/~emersion/go-scfg"

	"git.sr.ht/~delthas/weecord/discord"
)

// Options is the runtime key/value store, persisted as scfg.
//
// Keys: token, rename.<id>, mute.<id>, on_delete.<server id>.
type Options struct {
	path     string
	defaults map[string]string
	values   map[string]string
}

// LoadOptions reads the options stored at path. A missing file yields an
// empty store. defaults are returned for keys that were never set.
func LoadOptions(path string, defaults map[string]string) (*Options, error) {
	o := &Options{
		path:     path,
		defaults: defaults,
		values:   make(map[string]string),
	}
	if o.defaults == nil {
		o.defaults = make(map[string]string)
	}
	if path == "" {
		return o, nil
	}
	directives, err := scfg.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return o, nil
	} else if err != nil {
		return nil, fmt.Errorf("error parsing options: %v", err)
	}
	for _, d := range directives {
		switch d.Name {
		case "option":
			var key, value string
			if err := d.ParseParams(&key, &value); err != nil {
				return nil, err
			}
			o.values[key] = value
		default:
			return nil, fmt.Errorf("unknown directive %q", d.Name)
		}
	}
	return o, nil
}

// Get returns the value of key. Empty values count as unset.
func (o *Options) Get(key string) (string, bool) {
	v, ok := o.values[key]
	if !ok {
		v = o.defaults[key]
	}
	return v, v != ""
}

func (o *Options) Set(key, value string) error {
	o.values[key] = value
	return o.save()
}

// Delete unsets key, including a value from defaults.
func (o *Options) Delete(key string) error {
	if _, ok := o.defaults[key]; ok {
		o.values[key] = ""
	} else {
		delete(o.values, key)
	}
	return o.save()
}

func (o *Options) save() error {
	if o.path == "" {
		return nil
	}
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	block := make(scfg.Block, 0, len(keys))
	for _, k := range keys {
		block = append(block, &scfg.Directive{
			Name:   "option",
			Params: []string{k, o.values[k]},
		})
	}

	if err := os.MkdirAll(filepath.Dir(o.path), 0o700); err != nil {
		return err
	}
	tmp := o.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := scfg.Write(f, block); err != nil {
		f.Close()
		return fmt.Errorf("error writing options: %v", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, o.path)
}

func (o *Options) Rename(id discord.ID) (string, bool) {
	return o.Get("rename." + id.String())
}

// Muted reports whether notifications from the entity are silenced.
func (o *Options) Muted(id discord.ID) bool {
	v, ok := o.Get("mute." + id.String())
	if !ok {
		return false
	}
	muted, err := strconv.ParseBool(v)
	return err == nil && muted
}

// OnDelete returns the channel receiving deleted messages of a server.
func (o *Options) OnDelete(server discord.ID) (discord.ID, bool) {
	v, ok := o.Get("on_delete." + server.String())
	if !ok {
		return 0, false
	}
	id := discord.ParseID(v)
	return id, id != 0
}
