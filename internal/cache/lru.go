package cache

// lruNode links one key into the recency list. Nodes are owned by the
// cache entry that holds them.
type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

// lruList orders keys from most (front) to least (back) recently used.
// It is not safe for concurrent use.
type lruList[K comparable] struct {
	front, back *lruNode[K]
	len         int
}

func (l *lruList[K]) pushFront(n *lruNode[K]) {
	n.prev = nil
	n.next = l.front
	if l.front != nil {
		l.front.prev = n
	}
	l.front = n
	if l.back == nil {
		l.back = n
	}
	l.len++
}

func (l *lruList[K]) remove(n *lruNode[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.front = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.back = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}

func (l *lruList[K]) touch(n *lruNode[K]) {
	if l.front == n {
		return
	}
	l.remove(n)
	l.pushFront(n)
}
