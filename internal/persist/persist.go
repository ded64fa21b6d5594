// Package persist moves profile state between a live profile.Profile and a ports.ProfileStore.
package persist

import (
	"context"
	"easyprofile/internal/ports"
	"easyprofile/internal/profile"
	"easyprofile/internal/types"
	"errors"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Capture builds a snapshot of p. With onlyDirty set, clean categories are left out.
func Capture(p *profile.Profile, profileID string, onlyDirty bool) types.Snapshot {
	snap := types.NewSnapshot(profileID)
	for _, d := range p.Categories() {
		if onlyDirty && !p.IsDirty(d) {
			continue
		}
		for i := 0; i < d.Len(); i++ {
			v, _ := p.Value(d, i)
			snap.Put(d.Name(), d.EntryName(i), v)
		}
	}
	return snap
}

// Load restores profileID from store into p without per-value notification, then pushes the
// whole state to listeners once. A profile that was never stored keeps its defaults. It
// returns the number of entries restored.
//
// A category is clean after Load when every one of its entries was restored, or when it was
// clean before. Local changes the stored snapshot does not cover stay dirty, so the next flush
// still writes them.
func Load(ctx context.Context, p *profile.Profile, store ports.ProfileStore, profileID string) (int, error) {
	snap, err := store.Load(ctx, profileID)
	if errors.Is(err, types.ErrNotFound) {
		log.WithField("profileID", profileID).Info("No stored profile, keeping defaults")
		p.NotifyAll()
		return 0, nil
	}
	if err != nil {
		return 0, types.Err(types.ErrDataStoreAccess, err, "load profile %s", profileID)
	}
	before := p.DirtyMask()
	restored, err := apply(p, snap)
	if err != nil {
		return 0, err
	}
	n := 0
	for i, d := range p.Categories() {
		n += restored[d]
		if restored[d] == d.Len() || !before.Has(i) {
			p.ResetDirty(d)
		}
	}
	return n, nil
}

// Apply writes every known entry of snap into p quietly and then calls NotifyAll. Values are
// decoded before anything is written, so a decode error leaves p untouched. Unknown
// categories or entries, and entries whose stored kind no longer matches, are skipped.
func Apply(p *profile.Profile, snap types.Snapshot) (int, error) {
	restored, err := apply(p, snap)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range restored {
		n += c
	}
	return n, nil
}

// apply does the work of Apply and reports the number of entries restored per category.
func apply(p *profile.Profile, snap types.Snapshot) (map[profile.Descriptor]int, error) {
	type pending struct {
		d profile.Descriptor
		i int
		v any
	}
	var todo []pending
	for catName, entries := range snap.Categories {
		d, ok := p.Category(catName)
		if !ok {
			log.WithFields(log.Fields{
				"profileID": snap.ProfileID,
				"category":  catName,
			}).Warn("Skipping unknown category")
			continue
		}
		for name, raw := range entries {
			i, ok := d.IndexOf(name)
			if !ok {
				log.WithFields(log.Fields{
					"profileID": snap.ProfileID,
					"category":  catName,
					"entry":     name,
				}).Warn("Skipping unknown entry")
				continue
			}
			v, err := decodeValue(d, raw)
			if err != nil {
				return nil, types.Err(types.ErrDecode, err, "%s.%s", catName, name)
			}
			todo = append(todo, pending{d: d, i: i, v: v})
		}
	}

	restored := make(map[profile.Descriptor]int)
	for _, t := range todo {
		if err := p.Assign(t.d, t.i, t.v, false); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"profileID": snap.ProfileID,
				"category":  t.d.Name(),
				"entry":     t.d.EntryName(t.i),
			}).Warn("Skipping stored value")
			continue
		}
		restored[t.d]++
	}
	p.NotifyAll()
	return restored, nil
}

// Flush saves the dirty categories of p and clears their dirty bits. Nothing is written
// when p is clean. On a store error the dirty bits are kept so a later flush retries.
func Flush(ctx context.Context, p *profile.Profile, store ports.ProfileStore, profileID string) ([]string, error) {
	dirty := p.DirtyCategories()
	if len(dirty) == 0 {
		return nil, nil
	}
	names := make([]string, len(dirty))
	for i, d := range dirty {
		names[i] = d.Name()
	}
	snap := Capture(p, profileID, true)
	if err := store.Save(ctx, snap, names); err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "flush profile %s", profileID)
	}
	for _, d := range dirty {
		p.ResetDirty(d)
	}
	log.WithFields(log.Fields{
		"profileID":  profileID,
		"categories": names,
	}).Debug("Profile flushed")
	return names, nil
}

// decodeValue turns a stored value into the element type of d. Raw JSON is decoded as is;
// anything else is re-encoded to JSON first so numbers and variant maps land in the right
// Go type.
func decodeValue(d profile.Descriptor, raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return d.DecodeValue(data, json.Unmarshal)
}
