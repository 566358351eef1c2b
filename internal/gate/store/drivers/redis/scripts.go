package redis

import "github.com/redis/go-redis/v9"

// KEYS[1] subject hash
// ARGV id, display_name, refresh_token_hash, refresh_expires_at, now
// Returns 1 when created, 0 when the id is taken.
const createSubjectScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1],
  "id", ARGV[1],
  "display_name", ARGV[2],
  "refresh_token_hash", ARGV[3],
  "refresh_expires_at", ARGV[4],
  "created_at", ARGV[5],
  "updated_at", ARGV[5])
if ARGV[3] ~= "" and ARGV[4] ~= "" then
  redis.call("ZADD", KEYS[2], tonumber(ARGV[4]), ARGV[1])
end
return 1
`

// KEYS[1] subject hash, KEYS[2] expiry index
// ARGV id, prev, next, next_expires_at, now
// Returns 1 when swapped, 0 when prev is stale, -1 when the subject is missing.
const swapRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local current = redis.call("HGET", KEYS[1], "refresh_token_hash") or ""
if current ~= ARGV[2] then
  return 0
end
redis.call("HSET", KEYS[1],
  "refresh_token_hash", ARGV[3],
  "refresh_expires_at", ARGV[4],
  "updated_at", ARGV[5])
if ARGV[3] ~= "" and ARGV[4] ~= "" then
  redis.call("ZADD", KEYS[2], tonumber(ARGV[4]), ARGV[1])
else
  redis.call("ZREM", KEYS[2], ARGV[1])
end
return 1
`

// KEYS[1] expiry index
// ARGV subject key prefix, cutoff, now
// Returns the number of sessions cleared.
const clearExpiredScript = `
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
local cleared = 0
for _, id in ipairs(ids) do
  local key = ARGV[1] .. id
  if redis.call("EXISTS", key) == 1 and (redis.call("HGET", key, "refresh_token_hash") or "") ~= "" then
    redis.call("HSET", key, "refresh_token_hash", "", "refresh_expires_at", "", "updated_at", ARGV[3])
    cleared = cleared + 1
  end
  redis.call("ZREM", KEYS[1], id)
end
return cleared
`

// KEYS[1] subject hash, KEYS[2] expiry index
// ARGV id
const deleteSubjectScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("ZREM", KEYS[2], ARGV[1])
return existed
`

var (
	createSubjectLua = redis.NewScript(createSubjectScript)
	swapRefreshLua   = redis.NewScript(swapRefreshScript)
	clearExpiredLua  = redis.NewScript(clearExpiredScript)
	deleteSubjectLua = redis.NewScript(deleteSubjectScript)
)
