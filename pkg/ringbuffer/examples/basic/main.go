package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

func main() {
	// Create a ring buffer sized for 1024 float32 samples.
	w, r := ringbuffer.New(1024)

	fmt.Println("Lock-free SPSC float32 Ring Buffer Demo")
	fmt.Printf("Buffer capacity: %d samples\n\n", w.Capacity())

	var wg sync.WaitGroup
	wg.Add(2)

	// Producer goroutine - simulates a decode-and-mix worker pushing blocks.
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			block := make([]float32, 64)
			for j := range block {
				block[j] = float32(i*10+j) / 1000
			}

			written := 0
			for written < len(block) {
				n := w.PushSlice(block[written:])
				written += n
				if n == 0 {
					time.Sleep(time.Millisecond)
				}
			}

			fmt.Printf("Producer: wrote %d samples (block %d), occupied: %d\n",
				len(block), i, w.OccupiedLen())

			time.Sleep(10 * time.Millisecond)
		}
		fmt.Println("Producer: finished")
	}()

	// Consumer goroutine - simulates an output callback draining the buffer.
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond) // start slightly after producer

		totalRead := 0
		for totalRead < 640 { // 10 blocks * 64 samples
			for r.IsEmpty() {
				time.Sleep(time.Millisecond)
			}

			if _, ok := r.TryPop(); ok {
				totalRead++
			}

			if totalRead%64 == 0 {
				fmt.Printf("Consumer: read %d samples, remaining: %d\n",
					totalRead, r.OccupiedLen())
			}
		}
		fmt.Println("Consumer: finished")
	}()

	wg.Wait()
	fmt.Println("\nDemo completed successfully!")
}
