package main

import "easyprofile/internal/profile"

type boolKey int

const (
	BoolOne boolKey = iota
	BoolTwo
)

type u32Key int

const (
	U32One u32Key = iota
	U32Two
)

type strKey int

const (
	StrOne strKey = iota
	StrTwo
)

type settingKey int

const (
	SettingVolume settingKey = iota
	SettingRatio
	SettingLabel
)

var (
	boolCat = profile.MustCategory[boolKey, bool]("BOOL",
		profile.Entry[bool]{Name: "boolOne", Default: true},
		profile.Entry[bool]{Name: "boolTwo", Default: false},
	)
	u32Cat = profile.MustCategory[u32Key, uint32]("U32",
		profile.Entry[uint32]{Name: "u32One", Default: 123},
		profile.Entry[uint32]{Name: "u32Two", Default: 456},
	)
	strCat = profile.MustCategory[strKey, string]("STR",
		profile.Entry[string]{Name: "strOne", Default: "StrOne"},
		profile.Entry[string]{Name: "strTwo", Default: "StrTwo"},
	)
	settingsCat = profile.MustVariantCategory[settingKey]("SETTINGS",
		profile.Entry[profile.Value]{Name: "volume", Default: profile.UintValue(5)},
		profile.Entry[profile.Value]{Name: "ratio", Default: profile.FloatValue(0.5)},
		profile.Entry[profile.Value]{Name: "label"},
	)
)

func categories() []profile.Descriptor {
	return []profile.Descriptor{boolCat, u32Cat, strCat, settingsCat}
}
