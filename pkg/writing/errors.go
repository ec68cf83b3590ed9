package writing

import "errors"

// Input-format errors. A command that returns one of these changed nothing.
var (
	ErrInvalidIntent          = errors.New("writing intent requires purpose and audience")
	ErrEmptyRationale         = errors.New("revision rationale cannot be empty")
	ErrInvalidOperation       = errors.New("unknown revision operation")
	ErrInvalidSourceTag       = errors.New("unknown source tag")
	ErrInvalidStage           = errors.New("unknown trajectory stage")
	ErrInvalidStageTransition = errors.New("stage can only advance to the next stage")
	ErrFinalStage             = errors.New("trajectory is final")
	ErrSegmentNotFound        = errors.New("segment not found")
	ErrEmptyPrompt            = errors.New("defense card prompt cannot be empty")
	ErrDuplicateCard          = errors.New("defense card already exists")
	ErrCardNotFound           = errors.New("defense card not found")
	ErrInvalidDefenseStatus   = errors.New("unknown defense status")
	ErrDefenseRegression      = errors.New("defense status cannot move backwards")
	ErrInvalidEvidence        = errors.New("evidence link requires a known type and a reference")
)

// Replay errors.
var (
	ErrTrajectoryNotFound = errors.New("trajectory not found")
	ErrTrajectoryExists   = errors.New("trajectory already exists")
	ErrUnknownEvent       = errors.New("unknown writing event type")
	ErrStreamStart        = errors.New("event stream must start with TrajectoryCreated")
)
