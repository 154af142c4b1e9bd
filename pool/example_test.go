package pool_test

import (
	"fmt"

	"github.com/shmem-go/shmem/pool"
	"github.com/shmem-go/shmem/split"
)

func ExampleMap() {
	p := pool.New(pool.WithWorkers(4))

	squares, err := pool.Map(p, []int{1, 2, 3, 4, 5}, func(_ *pool.Task, v int) (int, error) {
		return v * v, nil
	}, pool.Ordered())
	if err != nil {
		panic(err)
	}
	fmt.Println(squares)
	// Output: [1 4 9 16 25]
}

func ExampleStarMap() {
	p := pool.New(pool.WithWorkers(2))

	data := []int{1, 2, 3, 4, 5, 6}
	tuples, err := p.ZipSplit(
		[]split.Arg{split.Seq(data), split.Broadcast(10)},
		split.NChunks(2),
	)
	if err != nil {
		panic(err)
	}

	sums, err := pool.StarMap(p, tuples, func(_ *pool.Task, args ...any) (int, error) {
		chunk, scale := args[0].([]int), args[1].(int)
		total := 0
		for _, v := range chunk {
			total += v * scale
		}
		return total, nil
	}, pool.Ordered())
	if err != nil {
		panic(err)
	}
	fmt.Println(sums)
	// Output: [60 150]
}
