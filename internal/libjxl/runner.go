package libjxl

/*
#include <jxl/thread_parallel_runner.h>
#include <jxl/resizable_parallel_runner.h>

// cgo cannot take the address of a C function directly; these helpers hand
// the runner entry points back as plain function-pointer values.
static JxlParallelRunner jxlThreadRunnerFn(void) { return JxlThreadParallelRunner; }
static JxlParallelRunner jxlResizableRunnerFn(void) { return JxlResizableParallelRunner; }
*/
import "C"

import (
	"unsafe"

	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// ParallelRunner is a native worker pool attached to a decoder or encoder at
// session creation.  It is immutable once attached and must be destroyed
// after the codec handle that references it.
type ParallelRunner interface {
	fn() C.JxlParallelRunner
	opaque() unsafe.Pointer
	// Destroy releases the native pool.  Must be called exactly once, after
	// the owning codec handle is gone.
	Destroy()
}

// ThreadRunner is a fixed-size native thread pool.
type ThreadRunner struct {
	p unsafe.Pointer
}

// NewThreadRunner creates a thread pool with the given worker count; 0 uses
// the native default (one worker per core).
func NewThreadRunner(threads int) (*ThreadRunner, error) {
	n := C.size_t(threads)
	if threads <= 0 {
		n = C.JxlThreadParallelRunnerDefaultNumWorkerThreads()
	}
	p := C.JxlThreadParallelRunnerCreate(nil, n)
	if p == nil {
		return nil, apperrors.New(apperrors.CategoryRunner, apperrors.KindAllocationFailed, "runner.create")
	}
	return &ThreadRunner{p: p}, nil
}

func (r *ThreadRunner) fn() C.JxlParallelRunner { return C.jxlThreadRunnerFn() }
func (r *ThreadRunner) opaque() unsafe.Pointer  { return r.p }

func (r *ThreadRunner) Destroy() {
	if r.p != nil {
		C.JxlThreadParallelRunnerDestroy(r.p)
		r.p = nil
	}
}

// ResizableRunner is a native thread pool that can grow once the image
// dimensions are known (the native engine picks a suitable size per image).
type ResizableRunner struct {
	p unsafe.Pointer
}

// NewResizableRunner creates a resizable pool with one initial worker.
func NewResizableRunner() (*ResizableRunner, error) {
	p := C.JxlResizableParallelRunnerCreate(nil)
	if p == nil {
		return nil, apperrors.New(apperrors.CategoryRunner, apperrors.KindAllocationFailed, "runner.create")
	}
	return &ResizableRunner{p: p}, nil
}

// SetDimensions sizes the pool for an image of the given dimensions.
func (r *ResizableRunner) SetDimensions(width, height uint32) {
	n := C.JxlResizableParallelRunnerSuggestThreads(C.uint64_t(width), C.uint64_t(height))
	C.JxlResizableParallelRunnerSetThreads(r.p, C.size_t(n))
}

func (r *ResizableRunner) fn() C.JxlParallelRunner {
	return C.jxlResizableRunnerFn()
}
func (r *ResizableRunner) opaque() unsafe.Pointer { return r.p }

func (r *ResizableRunner) Destroy() {
	if r.p != nil {
		C.JxlResizableParallelRunnerDestroy(r.p)
		r.p = nil
	}
}
