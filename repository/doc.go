/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package repository provides a generic Bun repository and the member and
// team repositories built on it.
//
// Repositories accept bun.IDB: pass a *bun.DB for autocommit access or a
// bun.Tx to run inside a transaction.
//
// Example:
//
//	members := repository.NewMemberRepository(db)
//	saved, err := members.Save(ctx, entity.NewMember("member1", 10, nil))
//	page, err := members.FindByAge(ctx, 10,
//		types.NewPageRequestWithOrders(0, 3, types.SortBy(types.Desc, "username")))
//
// Derived finders are composed from Criterion values instead of parsing
// method names:
//
//	found, err := members.FindBy(ctx, repository.Eq("username", "member1"), repository.Ge("age", 10))
package repository
