package cache

const equalVerdict = "Equal"

// Verdicts remembers the equal procedures of one pair of files.
type Verdicts struct {
	cache   *Cache
	oldHash string
	newHash string
	symbol  string
	options string
}

// ForFiles binds c to the current contents of oldPath and newPath.
func (c *Cache) ForFiles(oldPath, newPath, symbol string, options any) (*Verdicts, error) {
	oldHash, err := FileHash(oldPath)
	if err != nil {
		return nil, err
	}
	newHash, err := FileHash(newPath)
	if err != nil {
		return nil, err
	}
	return &Verdicts{
		cache:   c,
		oldHash: oldHash,
		newHash: newHash,
		symbol:  symbol,
		options: OptionsHash(options),
	}, nil
}

func (v *Verdicts) key(name string) Key {
	return Key{OldHash: v.oldHash, NewHash: v.newHash, Name: name, Symbol: v.symbol, Options: v.options}
}

// KnownEqual reports whether an earlier run proved name equal.
func (v *Verdicts) KnownEqual(name string) bool {
	e, ok := v.cache.Get(v.key(name))
	return ok && e.Verdict == equalVerdict
}

func (v *Verdicts) RememberEqual(name string) {
	v.cache.Set(v.key(name), equalVerdict)
}
