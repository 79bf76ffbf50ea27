package input

import "github.com/veandco/go-sdl2/sdl"

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePlay
	ActionSkipBack
	ActionSkipForward
	ActionSeekStart
	ActionSeekEnd
	ActionToggleLoop
	ActionReset
	ActionSpeedQuarter
	ActionSpeedHalf
	ActionSpeedNormal
	ActionSpeedDouble
	ActionToggleVisibility
	ActionNextCharacter
	ActionResetCamera
	ActionToggleIdle
	ActionRemoveCharacter
	ActionReloadCharacter
	ActionRemoveMotion
	ActionNextMorph
	ActionPrevMorph
	ActionMorphUp
	ActionMorphDown
	ActionClearMorph
	ActionClearMorphs
	ActionMoveLeft
	ActionMoveRight
	ActionResetTransform
	ActionScreenshot
	ActionQuit
)

var actionNames = map[Action]string{
	ActionTogglePlay:       "toggle_play",
	ActionSkipBack:         "skip_back",
	ActionSkipForward:      "skip_forward",
	ActionSeekStart:        "seek_start",
	ActionSeekEnd:          "seek_end",
	ActionToggleLoop:       "toggle_loop",
	ActionReset:            "reset",
	ActionSpeedQuarter:     "speed_0.25",
	ActionSpeedHalf:        "speed_0.5",
	ActionSpeedNormal:      "speed_1",
	ActionSpeedDouble:      "speed_2",
	ActionToggleVisibility: "toggle_visibility",
	ActionNextCharacter:    "next_character",
	ActionResetCamera:      "reset_camera",
	ActionToggleIdle:       "toggle_idle",
	ActionRemoveCharacter:  "remove_character",
	ActionReloadCharacter:  "reload_character",
	ActionRemoveMotion:     "remove_motion",
	ActionNextMorph:        "next_morph",
	ActionPrevMorph:        "prev_morph",
	ActionMorphUp:          "morph_up",
	ActionMorphDown:        "morph_down",
	ActionClearMorph:       "clear_morph",
	ActionClearMorphs:      "clear_morphs",
	ActionMoveLeft:         "move_left",
	ActionMoveRight:        "move_right",
	ActionResetTransform:   "reset_transform",
	ActionScreenshot:       "screenshot",
	ActionQuit:             "quit",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "none"
}

// Steps of the skip, morph and move actions.
const (
	SkipSeconds = 5
	MorphStep   = 0.1
	MoveStep    = 1
)

var bindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_SPACE:        ActionTogglePlay,
	sdl.SCANCODE_LEFT:         ActionSkipBack,
	sdl.SCANCODE_RIGHT:        ActionSkipForward,
	sdl.SCANCODE_HOME:         ActionSeekStart,
	sdl.SCANCODE_END:          ActionSeekEnd,
	sdl.SCANCODE_L:            ActionToggleLoop,
	sdl.SCANCODE_R:            ActionReset,
	sdl.SCANCODE_1:            ActionSpeedQuarter,
	sdl.SCANCODE_2:            ActionSpeedHalf,
	sdl.SCANCODE_3:            ActionSpeedNormal,
	sdl.SCANCODE_4:            ActionSpeedDouble,
	sdl.SCANCODE_H:            ActionToggleVisibility,
	sdl.SCANCODE_TAB:          ActionNextCharacter,
	sdl.SCANCODE_C:            ActionResetCamera,
	sdl.SCANCODE_I:            ActionToggleIdle,
	sdl.SCANCODE_DELETE:       ActionRemoveCharacter,
	sdl.SCANCODE_F5:           ActionReloadCharacter,
	sdl.SCANCODE_BACKSPACE:    ActionRemoveMotion,
	sdl.SCANCODE_M:            ActionNextMorph,
	sdl.SCANCODE_N:            ActionPrevMorph,
	sdl.SCANCODE_EQUALS:       ActionMorphUp,
	sdl.SCANCODE_MINUS:        ActionMorphDown,
	sdl.SCANCODE_K:            ActionClearMorph,
	sdl.SCANCODE_0:            ActionClearMorphs,
	sdl.SCANCODE_LEFTBRACKET:  ActionMoveLeft,
	sdl.SCANCODE_RIGHTBRACKET: ActionMoveRight,
	sdl.SCANCODE_T:            ActionResetTransform,
	sdl.SCANCODE_F12:          ActionScreenshot,
	sdl.SCANCODE_ESCAPE:       ActionQuit,
}

// ActionFor returns the action bound to a key.
func ActionFor(key sdl.Scancode) Action {
	return bindings[key]
}

// Speed returns the playback speed of a speed preset action.
func (a Action) Speed() (float32, bool) {
	switch a {
	case ActionSpeedQuarter:
		return 0.25, true
	case ActionSpeedHalf:
		return 0.5, true
	case ActionSpeedNormal:
		return 1, true
	case ActionSpeedDouble:
		return 2, true
	}
	return 0, false
}
