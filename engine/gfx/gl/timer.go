package glbackend

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

// TimestampQuery takes a query from the pool, growing it in batches.
func (d *Device) TimestampQuery() uint32 {
	if len(d.queries) == 0 {
		d.queries = make([]uint32, 32)
		gl.GenQueries(int32(len(d.queries)), &d.queries[0])
	}
	q := d.queries[len(d.queries)-1]
	d.queries = d.queries[:len(d.queries)-1]
	gl.QueryCounter(q, gl.TIMESTAMP)
	return q
}

func (d *Device) QueryResult(q uint32) (int64, bool) {
	var available int32
	gl.GetQueryObjectiv(q, gl.QUERY_RESULT_AVAILABLE, &available)
	if available == gl.FALSE {
		return 0, false
	}
	var ns uint64
	gl.GetQueryObjectui64v(q, gl.QUERY_RESULT, &ns)
	return int64(ns), true
}

// DeleteQuery returns q to the pool.
func (d *Device) DeleteQuery(q uint32) {
	d.queries = append(d.queries, q)
}

func (d *Device) GPUTime() int64 {
	var ns int64
	gl.GetInteger64v(gl.TIMESTAMP, &ns)
	return ns
}
