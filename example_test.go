package routine_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/b97tsk/routine"
)

func Example() {
	var sig routine.Signal

	// A routine that waits for sig, then completes with 42.
	state := 0
	r := routine.Start(routine.StateMachineFunc[int](func(b *routine.Builder[int]) {
		switch state {
		case 0:
			state = 1
			fmt.Println("waiting")
			b.AwaitOnCompleted(sig.Wait()) // Suspends.
		case 1:
			fmt.Println("resumed")
			b.SetResult(42)
		}
	}))

	fmt.Println(r.Status())

	sig.Notify() // Resumes r, right here.

	v, err := r.Result()
	fmt.Println(r.Status(), v, err)

	// Output:
	// waiting
	// suspended
	// resumed
	// completed 42 <nil>
}

// This example demonstrates how breaking a routine tears down everything
// attached to it, the most recently attached child first, before running
// the cleanups of the routine itself.
func Example_break() {
	child := func(name string) routine.StateMachine[struct{}] {
		return routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
			b.Task().Scope().OnDispose(func() { fmt.Println(name, "cleaned up") })
			b.AwaitOnCompleted(routine.Ticks(100))
		})
	}

	parent := routine.Start(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		b.Task().Scope().OnDispose(func() { fmt.Println("parent cleaned up") })
		for _, name := range []string{"c1", "c2", "c3"} {
			routine.Spawn(b.Task(), child(name), routine.WithName(name))
		}
		b.AwaitOnCompleted(routine.Ticks(100))
	}))

	parent.Cancel(errors.New("shutting down"))

	fmt.Println(parent.Err())

	// Output:
	// c3 cleaned up
	// c2 cleaned up
	// c1 cleaned up
	// parent cleaned up
	// routine: canceled: shutting down
}

// This example demonstrates how one routine awaits another.
func Example_await() {
	var myExecutor routine.Executor

	// Pretends to fetch something for three ticks.
	fetchState := 0
	fetch := routine.New(routine.StateMachineFunc[string](func(b *routine.Builder[string]) {
		switch fetchState {
		case 0:
			fetchState = 1
			b.AwaitOnCompleted(routine.Ticks(3))
		case 1:
			b.SetResult("hello")
		}
	}))

	state := 0
	myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		switch state {
		case 0:
			state = 1
			b.AwaitOnCompleted(fetch) // fetch is updated by whoever awaits it.
		case 1:
			v, err := fetch.Result()
			fmt.Println(v, err)
			b.Complete()
		}
	})))

	for myExecutor.Len() != 0 {
		myExecutor.Update()
	}

	fmt.Println("ticks:", myExecutor.Tick())

	// Output:
	// hello <nil>
	// ticks: 5
}

func ExampleTicks() {
	var myExecutor routine.Executor

	i := 0
	myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		if i == 3 {
			b.Complete()
			return
		}
		i++
		fmt.Println("step", i, "at tick", myExecutor.Tick())
		b.AwaitOnCompleted(routine.Ticks(2))
	})))

	for myExecutor.Len() != 0 {
		myExecutor.Update()
	}

	// Output:
	// step 1 at tick 1
	// step 2 at tick 3
	// step 3 at tick 5
}

func ExampleUntil() {
	var myExecutor routine.Executor

	count := 0

	state := 0
	myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		switch state {
		case 0:
			state = 1
			b.AwaitOnCompleted(routine.Until(func() bool { return count >= 3 }))
		case 1:
			fmt.Println("count =", count)
			b.Complete()
		}
	})))

	for myExecutor.Len() != 0 {
		count++
		myExecutor.Update()
	}

	// Output:
	// count = 3
}

func ExampleSemaphore() {
	var myExecutor routine.Executor

	mySemaphore := routine.NewSemaphore(12)

	for n := int64(1); n <= 8; n++ {
		state := 0
		myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
			switch state {
			case 0:
				state = 1
				b.AwaitOnCompleted(mySemaphore.Acquire(n))
			case 1:
				state = 2
				fmt.Println(n)
				b.Task().Scope().OnDispose(func() { mySemaphore.Release(n) })
				b.AwaitOnCompleted(routine.Ticks(1)) // Hold it for a tick.
			case 2:
				b.Complete()
			}
		})))
	}

	for myExecutor.Len() != 0 {
		myExecutor.Update()
	}

	// Output:
	// 1
	// 2
	// 3
	// 4
	// 5
	// 6
	// 7
	// 8
}

func ExampleWaitGroup() {
	var wg sync.WaitGroup // For keeping track of goroutines.

	var myExecutor routine.Executor

	var myState struct {
		wg     routine.WaitGroup
		v1, v2 int
	}

	myState.wg.Add(2) // Note that routine.WaitGroup is not safe for concurrent use.

	state := 0
	myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		switch state {
		case 0:
			state = 1
			b.AwaitOnCompleted(myState.wg.Wait())
		case 1:
			fmt.Println("v1 + v2 =", myState.v1+myState.v2)
			b.Complete()
		}
	})))

	for i, ans := range []int{15, 27} {
		wg.Go(func() {
			// Heavy work here.
			// Executor.Spawn is safe for concurrent use; the result is handed
			// over to the goroutine driving myExecutor.
			myExecutor.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
				if i == 0 {
					myState.v1 = ans
				} else {
					myState.v2 = ans
				}
				myState.wg.Done()
				b.Complete()
			})))
		})
	}

	wg.Wait()

	for myExecutor.Len() != 0 {
		myExecutor.Update()
	}

	// Output:
	// v1 + v2 = 42
}

func ExampleState() {
	myState := routine.NewState(0)

	routine.Start(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		v := myState.Get()
		fmt.Println(v)
		if v >= 3 {
			b.Complete()
			return
		}
		b.AwaitOnCompleted(myState.Changed())
	}))

	for i := 1; i <= 5; i++ {
		myState.Set(i)
	}

	fmt.Println(myState.Get()) // Prints 5.

	// Output:
	// 0
	// 1
	// 2
	// 3
	// 5
}
