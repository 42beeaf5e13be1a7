package protocol

import "fmt"

// Command identifies a sensor request/response pair by its 16-bit code.
type Command uint16

// Command codes supported by the FPC2534 firmware.
const (
	CmdStatus           Command = 0x0040
	CmdVersion          Command = 0x0041
	CmdBIST             Command = 0x0044
	CmdCapture          Command = 0x0050
	CmdAbort            Command = 0x0052
	CmdImageData        Command = 0x0053
	CmdEnroll           Command = 0x0054
	CmdIdentify         Command = 0x0055
	CmdListTemplates    Command = 0x0060
	CmdDeleteTemplate   Command = 0x0061
	CmdGetTemplateData  Command = 0x0062
	CmdPutTemplateData  Command = 0x0063
	CmdGetSystemConfig  Command = 0x006A
	CmdSetSystemConfig  Command = 0x006B
	CmdReset            Command = 0x0072
	CmdSetCryptoKey     Command = 0x0083
	CmdSetDebugLogLevel Command = 0x00B0
	CmdFactoryReset     Command = 0x00FA
	CmdDataGet          Command = 0x0101
	CmdDataPut          Command = 0x0102
	CmdNavigation       Command = 0x0200
	CmdNavigationPS     Command = 0x0201
	CmdGPIOControl      Command = 0x0300
)

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%04x)", uint16(c))
}

var commandNames = map[Command]string{
	CmdStatus:           "STATUS",
	CmdVersion:          "VERSION",
	CmdBIST:             "BIST",
	CmdCapture:          "CAPTURE",
	CmdAbort:            "ABORT",
	CmdImageData:        "IMAGE_DATA",
	CmdEnroll:           "ENROLL",
	CmdIdentify:         "IDENTIFY",
	CmdListTemplates:    "LIST_TEMPLATES",
	CmdDeleteTemplate:   "DELETE_TEMPLATE",
	CmdGetTemplateData:  "GET_TEMPLATE_DATA",
	CmdPutTemplateData:  "PUT_TEMPLATE_DATA",
	CmdGetSystemConfig:  "GET_SYSTEM_CONFIG",
	CmdSetSystemConfig:  "SET_SYSTEM_CONFIG",
	CmdReset:            "RESET",
	CmdSetCryptoKey:     "SET_CRYPTO_KEY",
	CmdSetDebugLogLevel: "SET_DBG_LOG_LEVEL",
	CmdFactoryReset:     "FACTORY_RESET",
	CmdDataGet:          "DATA_GET",
	CmdDataPut:          "DATA_PUT",
	CmdNavigation:       "NAVIGATION",
	CmdNavigationPS:     "NAVIGATION_PS",
	CmdGPIOControl:      "GPIO_CONTROL",
}

// FrameType distinguishes a request, a direct response, or an unsolicited
// event carrying the same per-command payload shape.
type FrameType uint16

const (
	FrameTypeRequest  FrameType = 0x0011
	FrameTypeResponse FrameType = 0x0012
	FrameTypeEvent    FrameType = 0x0013
)

// State is a single sensor state bitflag.
type State uint16

const (
	StateAppFWReady       State = 0x0001
	StateSecureInterface  State = 0x0002
	StateCapture          State = 0x0004
	StateImageAvailable   State = 0x0010
	StateDataTransfer     State = 0x0040
	StateFingerDown       State = 0x0080
	StateSysError         State = 0x0400
	StateEnroll           State = 0x1000
	StateIdentify         State = 0x2000
	StateNavigation       State = 0x4000
)

// stateOrder fixes iteration order for State.String and StatesFromMask so
// output is deterministic even though the invariant (§8 property 3) only
// requires set equality.
var stateOrder = []State{
	StateAppFWReady,
	StateSecureInterface,
	StateCapture,
	StateImageAvailable,
	StateDataTransfer,
	StateFingerDown,
	StateSysError,
	StateEnroll,
	StateIdentify,
	StateNavigation,
}

var stateNames = map[State]string{
	StateAppFWReady:      "STATE_APP_FW_READY",
	StateSecureInterface: "STATE_SECURE_INTERFACE",
	StateCapture:         "STATE_CAPTURE",
	StateImageAvailable:  "STATE_IMAGE_AVAILABLE",
	StateDataTransfer:    "STATE_DATA_TRANSFER",
	StateFingerDown:      "STATE_FINGER_DOWN",
	StateSysError:        "STATE_SYS_ERROR",
	StateEnroll:          "STATE_ENROLL",
	StateIdentify:        "STATE_IDENTIFY",
	StateNavigation:      "STATE_NAVIGATION",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(0x%04x)", uint16(s))
}

// StatesFromMask returns every named state flag present in mask, in a fixed
// order. Per spec the set must equal {name : (mask & state) != 0}; order is
// not significant to callers but is kept stable for deterministic tests.
func StatesFromMask(mask uint16) []State {
	var states []State
	for _, s := range stateOrder {
		if mask&uint16(s) != 0 {
			states = append(states, s)
		}
	}
	return states
}

// HasState reports whether states contains s.
func HasState(states []State, s State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

// Event is a spontaneous notification code carried by STATUS responses/events.
type Event uint16

const (
	EventNone         Event = 0
	EventIdle         Event = 1
	EventFingerDetect Event = 3
	EventFingerLost   Event = 4
	EventImageReady   Event = 5
	EventCmdFailed    Event = 6

	// EventFingerMatched and EventIdentifyStarted are synthesized by this
	// gateway (never sent by the sensor) and surfaced only on the identify
	// WebSocket subscription stream.
	EventFingerMatched   Event = 0xFFF0
	EventIdentifyStarted Event = 0xFFF1
)

var eventNames = map[Event]string{
	EventNone:            "EVENT_NONE",
	EventIdle:            "EVENT_IDLE",
	EventFingerDetect:    "EVENT_FINGER_DETECT",
	EventFingerLost:      "EVENT_FINGER_LOST",
	EventImageReady:      "EVENT_IMAGE_READY",
	EventCmdFailed:       "EVENT_CMD_FAILED",
	EventFingerMatched:   "EVENT_FINGER_MATCHED",
	EventIdentifyStarted: "EVENT_IDENTIFY_STARTED",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", uint16(e))
}

// NavEvent identifies a navigation-pad gesture.
type NavEvent uint16

const (
	NavEventNone       NavEvent = 0
	NavEventUp         NavEvent = 1
	NavEventDown       NavEvent = 2
	NavEventRight      NavEvent = 3
	NavEventLeft       NavEvent = 4
	NavEventPress      NavEvent = 5
	NavEventLongPress  NavEvent = 6
)

var navEventNames = map[NavEvent]string{
	NavEventNone:      "CMD_NAV_EVENT_NONE",
	NavEventUp:        "CMD_NAV_EVENT_UP",
	NavEventDown:      "CMD_NAV_EVENT_DOWN",
	NavEventRight:     "CMD_NAV_EVENT_RIGHT",
	NavEventLeft:      "CMD_NAV_EVENT_LEFT",
	NavEventPress:     "CMD_NAV_EVENT_PRESS",
	NavEventLongPress: "CMD_NAV_EVENT_LONG_PRESS",
}

func (n NavEvent) String() string {
	if name, ok := navEventNames[n]; ok {
		return name
	}
	return fmt.Sprintf("NavEvent(%d)", uint16(n))
}

// EnrollFeedback identifies progress/terminal feedback during an enroll.
type EnrollFeedback uint8

const (
	EnrollFeedbackDone               EnrollFeedback = 1
	EnrollFeedbackProgress           EnrollFeedback = 2
	EnrollFeedbackRejectLowQuality   EnrollFeedback = 3
	EnrollFeedbackRejectLowCoverage  EnrollFeedback = 4
	EnrollFeedbackRejectLowMobility  EnrollFeedback = 5
	EnrollFeedbackRejectOther        EnrollFeedback = 6
	EnrollFeedbackProgressImmobile   EnrollFeedback = 7
)

var enrollFeedbackNames = map[EnrollFeedback]string{
	EnrollFeedbackDone:              "ENROLL_FEEDBACK_DONE",
	EnrollFeedbackProgress:          "ENROLL_FEEDBACK_PROGRESS",
	EnrollFeedbackRejectLowQuality:  "ENROLL_FEEDBACK_REJECT_LOW_QUALITY",
	EnrollFeedbackRejectLowCoverage: "ENROLL_FEEDBACK_REJECT_LOW_COVERAGE",
	EnrollFeedbackRejectLowMobility: "ENROLL_FEEDBACK_REJECT_LOW_MOBILITY",
	EnrollFeedbackRejectOther:       "ENROLL_FEEDBACK_REJECT_OTHER",
	EnrollFeedbackProgressImmobile:  "ENROLL_FEEDBACK_PROGRESS_IMMOBILE",
}

func (f EnrollFeedback) String() string {
	if name, ok := enrollFeedbackNames[f]; ok {
		return name
	}
	return fmt.Sprintf("EnrollFeedback(%d)", uint8(f))
}

// AppFailCode is the sensor's own application-level failure code, carried in
// STATUS responses. Unrecognized codes are still surfaced numerically.
type AppFailCode uint16

const (
	AppFailNone             AppFailCode = 0
	AppFailFailure          AppFailCode = 11
	AppFailInvalidParam     AppFailCode = 12
	AppFailWrongState       AppFailCode = 13
	AppFailOutOfMemory      AppFailCode = 14
	AppFailTimeout          AppFailCode = 15
	AppFailNotSupported     AppFailCode = 16
	AppFailTemplateExists   AppFailCode = 20
	AppFailTemplateNotFound AppFailCode = 21
	AppFailNoImageAvailable AppFailCode = 43
)

var appFailNames = map[AppFailCode]string{
	AppFailFailure:          "FPC_RESULT_FAILURE",
	AppFailInvalidParam:     "FPC_RESULT_INVALID_PARAM",
	AppFailWrongState:       "FPC_RESULT_WRONG_STATE",
	AppFailOutOfMemory:      "FPC_RESULT_OUT_OF_MEMORY",
	AppFailTimeout:          "FPC_RESULT_TIMEOUT",
	AppFailNotSupported:     "FPC_RESULT_NOT_SUPPORTED",
	AppFailTemplateExists:   "FPC_TEMPLATE_EXISTS",
	AppFailTemplateNotFound: "FPC_TEMPLATE_NOT_FOUND",
	AppFailNoImageAvailable: "FPC_NO_IMAGE_AVAILABLE",
}

func (c AppFailCode) String() string {
	if name, ok := appFailNames[c]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint16(c))
}

// identifyResultFound is the sensor's magic "match found" sentinel for the
// IDENTIFY response's identify_result field.
const identifyResultFound = 0x61EC

// id type selectors used by ENROLL/IDENTIFY/DELETE_TEMPLATE requests.
const (
	idTypeEnrollAny    = 0x4045
	idTypeEnrollOne    = 0x3034
	idTypeIdentifyAny  = 0x2023
	idTypeIdentifyOne  = 0x3034
	idTypeDeleteOne    = 0x3034
)
