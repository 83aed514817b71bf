package main

import "sort"

// User mode flag keys.
const (
	ModeAway          = 'a'
	ModeInvisible     = 'i'
	ModeWallops       = 'w'
	ModeRestricted    = 'r'
	ModeOperator      = 'o'
	ModeLocalOperator = 'O'
	ModeServerNotices = 's'
)

// Channel mode flag keys.
const (
	ModeChannelPrivate      = 'p'
	ModeChannelSecret       = 's'
	ModeChannelInviteOnly   = 'i'
	ModeChannelTopicClosed  = 't'
	ModeChannelNoExternal   = 'n'
	ModeChannelModerated    = 'm'
	ModeChannelUserLimit    = 'l'
	ModeChannelBanMask      = 'b'
	ModeChannelExceptMask   = 'e'
	ModeChannelVoice        = 'v'
	ModeChannelKey          = 'k'
	ModeChannelOperatorFlag = 'o'
)

// ModeParamMissing is raised by a flag's set when it requires a non-empty
// parameter and none was given. The command handler translates it to a 461
// reply.
//
// Grounded on original_source/ircd/mode.py's ModeParamMissing.
type ModeParamMissing struct{}

func (ModeParamMissing) Error() string { return "mode flag requires a parameter" }

// flag is one mode character's behavior. Grounded on mode.py's ModeFlag
// hierarchy: a flag is a boolean plus optional side effects on its parent
// entity, addressing spec 9's note on modeling mode-flag polymorphism as a
// tagged variant rather than ad hoc branching.
type flag interface {
	isSet() bool
	set(param string) error
	clear(param string) error
}

// boolFlag is a plain on/off flag with no side effects.
type boolFlag struct {
	value bool
}

func (f *boolFlag) isSet() bool { return f.value }
func (f *boolFlag) set(string) error {
	f.value = true
	return nil
}
func (f *boolFlag) clear(string) error {
	f.value = false
	return nil
}

// keyFlag is the channel 'k' flag: requires a parameter on set, clears the
// channel's key on clear.
type keyFlag struct {
	boolFlag
	channel *Channel
}

func (f *keyFlag) set(param string) error {
	if param == "" {
		return ModeParamMissing{}
	}
	if err := f.boolFlag.set(param); err != nil {
		return err
	}
	f.channel.Key = param
	return nil
}

func (f *keyFlag) clear(param string) error {
	if err := f.boolFlag.clear(param); err != nil {
		return err
	}
	f.channel.Key = ""
	return nil
}

// maskFlag is shared behavior for 'b' (ban) and 'e' (exception): parse the
// parameter as a Mask and add/remove it from a collection the concrete
// flag names.
type maskFlag struct {
	boolFlag
	add    func(Mask)
	remove func(Mask)
}

func (f *maskFlag) set(param string) error {
	if err := f.boolFlag.set(param); err != nil {
		return err
	}
	if mask, ok := ParseMask(param); ok {
		f.add(mask)
	}
	return nil
}

func (f *maskFlag) clear(param string) error {
	if err := f.boolFlag.clear(param); err != nil {
		return err
	}
	if mask, ok := ParseMask(param); ok {
		f.remove(mask)
	}
	return nil
}

// operatorFlag is the channel 'o' flag: requires a nickname parameter,
// which it resolves against the channel's membership and toggles in
// channel.Operators.
type operatorFlag struct {
	boolFlag
	channel *Channel
}

func (f *operatorFlag) set(param string) error {
	if param == "" {
		return ModeParamMissing{}
	}
	nickname := f.channel.GetMember(param)
	if nickname != nil && !f.channel.IsOperator(nickname) {
		f.channel.Operators = append(f.channel.Operators, nickname)
	}
	return nil
}

func (f *operatorFlag) clear(param string) error {
	if param == "" {
		return ModeParamMissing{}
	}
	nickname := f.channel.GetMember(param)
	if nickname == nil {
		return nil
	}
	for i, op := range f.channel.Operators {
		if op == nickname {
			f.channel.Operators = append(f.channel.Operators[:i], f.channel.Operators[i+1:]...)
			break
		}
	}
	return nil
}

// Mode is a mapping from flag character to flag instance, attached to
// exactly one Nickname or Channel.
//
// Grounded on original_source/ircd/mode.py's Mode class.
type Mode struct {
	flags map[byte]flag
}

func newUserMode() *Mode {
	return &Mode{flags: map[byte]flag{
		ModeAway:          &boolFlag{},
		ModeInvisible:     &boolFlag{},
		ModeWallops:       &boolFlag{},
		ModeRestricted:    &boolFlag{},
		ModeLocalOperator: &boolFlag{},
		ModeServerNotices: &boolFlag{},
		ModeOperator:      &boolFlag{},
	}}
}

func newChannelMode(c *Channel) *Mode {
	m := &Mode{flags: map[byte]flag{
		ModeChannelPrivate:     &boolFlag{},
		ModeChannelSecret:      &boolFlag{},
		ModeChannelInviteOnly:  &boolFlag{},
		ModeChannelTopicClosed: &boolFlag{},
		ModeChannelNoExternal:  &boolFlag{},
		ModeChannelModerated:   &boolFlag{},
		ModeChannelUserLimit:   &boolFlag{},
		ModeChannelVoice:       &boolFlag{},
	}}
	m.flags[ModeChannelKey] = &keyFlag{channel: c}
	m.flags[ModeChannelOperatorFlag] = &operatorFlag{channel: c}
	m.flags[ModeChannelBanMask] = &maskFlag{add: c.AddBan, remove: c.RemoveBan}
	m.flags[ModeChannelExceptMask] = &maskFlag{add: c.AddException, remove: c.RemoveException}
	return m
}

// String renders the set flags as "+abc" style, sorted for determinism.
func (m *Mode) String() string {
	s := "+"
	var keys []byte
	for k, f := range m.flags {
		if f.isSet() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		s += string(k)
	}
	return s
}

// HasFlag reports whether the named flag is currently set.
func (m *Mode) HasFlag(key byte) bool {
	f, ok := m.flags[key]
	return ok && f.isSet()
}

// SetFlag sets a single flag. It returns whether the flag exists at all;
// a ModeParamMissing error is returned if the flag required a parameter
// that wasn't given.
func (m *Mode) SetFlag(key byte, param string) (bool, error) {
	f, ok := m.flags[key]
	if !ok {
		return false, nil
	}
	if err := f.set(param); err != nil {
		return false, err
	}
	return true, nil
}

// ClearFlag clears a single flag, reporting whether it had been set. For
// 'o' the flag counts as set when param names a member who is an operator
// other than the channel owner, so the owner is never removed.
func (m *Mode) ClearFlag(key byte, param string) (bool, error) {
	f, ok := m.flags[key]
	if !ok {
		return false, nil
	}
	wasSet := f.isSet()
	if of, ok := f.(*operatorFlag); ok {
		if param == "" {
			return false, ModeParamMissing{}
		}
		nickname := of.channel.GetMember(param)
		wasSet = nickname != nil && nickname != of.channel.Owner && of.channel.IsOperator(nickname)
	}
	if wasSet {
		if err := f.clear(param); err != nil {
			return false, err
		}
	}
	return wasSet, nil
}

// SetFlags sets every flag named in flags (one character per flag),
// returning the subset that actually correspond to known flags, in the
// order given.
func (m *Mode) SetFlags(flags string, param string) (string, error) {
	var changed []byte
	for i := 0; i < len(flags); i++ {
		ok, err := m.SetFlag(flags[i], param)
		if err != nil {
			return "", err
		}
		if ok {
			changed = append(changed, flags[i])
		}
	}
	return string(changed), nil
}

// ClearFlags clears every flag named in flags that was previously set,
// returning the subset actually cleared, in the order given.
func (m *Mode) ClearFlags(flags string, param string) (string, error) {
	var changed []byte
	for i := 0; i < len(flags); i++ {
		wasSet, err := m.ClearFlag(flags[i], param)
		if err != nil {
			return "", err
		}
		if wasSet {
			changed = append(changed, flags[i])
		}
	}
	return string(changed), nil
}
