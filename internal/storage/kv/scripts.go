package kv

import "github.com/redis/go-redis/v9"

// updateProgressScript atomically refuses to touch a terminal job, then
// sets progress/updated_at and refreshes the TTL — read-refuse-write-expire
// as a single script, per the atomicity requirement on update_progress.
var updateProgressScript = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
    return 0
end
local job = cjson.decode(data)
if job['status'] == 'completed' or job['status'] == 'failed' then
    return -1
end
job['progress'] = cjson.decode(ARGV[1])
job['updated_at'] = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(job))
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

// saveIfExistsScript backs Start/Complete/Fail's persistence: the entity
// mutation and event are computed in Go, but the write itself is a single
// atomic "refuse if the record is gone" script rather than a blind SET, so
// a worker whose job was deleted out from under it by a racing cancel_job
// can never resurrect the record with a fresh TTL. This is the guard the
// Cancellation contract in §5 depends on for status writes, not just
// progress writes.
var saveIfExistsScript = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
    return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// incrScript is the distributed rate-limit admission check: read the
// current counter, refuse (-1) if it has already reached the limit,
// otherwise INCR and, only on the first increment (count == 1), EXPIRE to
// align the counter's lifetime with the caller-supplied window. The check
// and the increment happen in the same script so no two callers can both
// observe "under limit" and both be admitted past it.
var incrScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
    return -1
end
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return count
`)

// archiveSaveScript writes the archive record plus its two secondary
// indexes (status-sorted-set by archived_at score, date-set) as one
// pipeline-equivalent script, per the archive-save atomicity requirement.
var archiveSaveScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[4])
redis.call('SADD', KEYS[3], ARGV[4])
return 1
`)
