package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
)

// State 表单会话状态
type State string

const (
	StateEditing    State = "Editing"
	StateValidating State = "Validating"
	StateInvalid    State = "Invalid"
	StateValid      State = "Valid"
	StateSubmitting State = "Submitting"
	StateFailed     State = "Failed"
	StateSucceeded  State = "Succeeded"
	StateConfirmed  State = "Confirmed"
	StateReset      State = "Reset"
)

// transitionMap 目标状态 -> 允许的来源状态
var transitionMap = map[State][]State{
	StateValidating: {StateEditing},
	StateInvalid:    {StateValidating},
	StateValid:      {StateValidating},
	StateSubmitting: {StateValid},
	StateFailed:     {StateSubmitting},
	StateSucceeded:  {StateSubmitting},
	StateConfirmed:  {StateSucceeded},
	StateReset:      {StateConfirmed},
	StateEditing:    {StateInvalid, StateFailed, StateReset},
}

// ValidTransition 判断状态转换是否合法
func ValidTransition(from, to State) bool {
	allowed, ok := transitionMap[to]
	if !ok {
		return false
	}
	for _, state := range allowed {
		if state == from {
			return true
		}
	}
	return false
}

// ErrInvalidTransition 当前状态不允许该操作
var ErrInvalidTransition = errors.New("invalid form state transition")

// Submitter 提交表单的服务端接口，*Client 实现该接口
type Submitter interface {
	Submit(ctx context.Context, requestType model.RequestType, body interface{}, idempotencyKey string) (uint, error)
}

// ReadBack 提交成功后的回显
type ReadBack[F any] struct {
	ID   uint
	Form F
}

// FormSession 单个表单的编辑会话
// 同一会话内的重复提交携带相同的幂等键，Reset 后生成新的键
type FormSession[D any, F form.Form[D]] struct {
	mu           sync.Mutex
	submitter    Submitter
	requestType  model.RequestType
	newForm      func() F
	form         F
	state        State
	key          string
	invalid      *form.ValidationError
	lastErr      error
	readBack     *ReadBack[F]
	onInvalidate func(model.RequestType)
}

// NewFormSession 创建表单会话，onInvalidate 在确认后调用，用于刷新受影响的列表
func NewFormSession[D any, F form.Form[D]](
	submitter Submitter,
	requestType model.RequestType,
	newForm func() F,
	onInvalidate func(model.RequestType),
) *FormSession[D, F] {
	return &FormSession[D, F]{
		submitter:    submitter,
		requestType:  requestType,
		newForm:      newForm,
		form:         newForm(),
		state:        StateEditing,
		key:          uuid.New().String(),
		onInvalidate: onInvalidate,
	}
}

// State 当前状态
func (s *FormSession[D, F]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IdempotencyKey 当前会话的幂等键
func (s *FormSession[D, F]) IdempotencyKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Errors 最近一次校验失败的字段
func (s *FormSession[D, F]) Errors() *form.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalid
}

// LastError 最近一次提交失败的错误
func (s *FormSession[D, F]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Edit 修改表单，Invalid 或 Failed 状态下先回到 Editing
func (s *FormSession[D, F]) Edit(fn func(f F)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateInvalid || s.state == StateFailed {
		if err := s.transition(StateEditing); err != nil {
			return err
		}
	}
	if s.state != StateEditing {
		return fmt.Errorf("%w: cannot edit in state %s", ErrInvalidTransition, s.state)
	}
	fn(s.form)
	return nil
}

// Validate 运行与服务端相同的校验，结果为 Valid 或 Invalid
func (s *FormSession[D, F]) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *FormSession[D, F]) validate() error {
	if err := s.transition(StateValidating); err != nil {
		return err
	}

	s.form.Normalize()
	if err := form.Validate(s.form); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			s.invalid = verr
		}
		_ = s.transition(StateInvalid)
		return err
	}

	s.invalid = nil
	return s.transition(StateValid)
}

// Submit 提交表单；未校验时先校验
// 失败时进入 Failed，可以修改后重新提交，幂等键保持不变
func (s *FormSession[D, F]) Submit(ctx context.Context) (*ReadBack[F], error) {
	s.mu.Lock()
	if s.state == StateInvalid || s.state == StateFailed {
		_ = s.transition(StateEditing)
	}
	if s.state == StateEditing {
		if err := s.validate(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	if err := s.transition(StateSubmitting); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	f, key := s.form, s.key
	s.mu.Unlock()

	id, err := s.submitter.Submit(ctx, s.requestType, f, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		_ = s.transition(StateFailed)
		return nil, err
	}

	s.lastErr = nil
	s.readBack = &ReadBack[F]{ID: id, Form: f}
	if err := s.transition(StateSucceeded); err != nil {
		return nil, err
	}
	return s.readBack, nil
}

// ReadBack 提交成功后的回显，未成功提交时返回 nil
func (s *FormSession[D, F]) ReadBack() *ReadBack[F] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readBack
}

// Confirm 确认回显：清空表单，生成新的幂等键，并只刷新该类型的列表
func (s *FormSession[D, F]) Confirm() error {
	s.mu.Lock()
	if err := s.transition(StateConfirmed); err != nil {
		s.mu.Unlock()
		return err
	}
	_ = s.transition(StateReset)

	s.form = s.newForm()
	s.key = uuid.New().String()
	s.readBack = nil
	s.invalid = nil
	_ = s.transition(StateEditing)
	onInvalidate := s.onInvalidate
	s.mu.Unlock()

	if onInvalidate != nil {
		onInvalidate(s.requestType)
	}
	return nil
}

// transition 调用方持有锁
func (s *FormSession[D, F]) transition(to State) error {
	if !ValidTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}
